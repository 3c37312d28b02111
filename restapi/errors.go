package restapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sharedcode/idxstore"
	"github.com/sharedcode/idxstore/metrics"
)

// StatusOf maps an error to the HTTP status it is reported with.
func StatusOf(err error) int {
	var e idxstore.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Code {
	case idxstore.NotFound:
		return http.StatusNotFound
	case idxstore.DuplicateKey, idxstore.DependentsExist:
		return http.StatusConflict
	case idxstore.InvalidArgument, idxstore.InvalidCapacity, idxstore.InvalidIndex:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.IndentedJSON(StatusOf(err), gin.H{"message": err.Error()})
}

// CountRequests is a middleware counting requests by route, method and status code into counter,
// which must carry the route, method and status labels.
func CountRequests(counter *prometheus.CounterVec) gin.HandlerFunc {
	if counter == nil {
		counter = metrics.Requests
	}
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		counter.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
