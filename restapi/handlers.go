package restapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sharedcode/idxstore"
	"github.com/sharedcode/idxstore/registry"
)

// Handlers serves the registry's REST methods.
type Handlers struct {
	svc *registry.Service
}

// NewHandlers returns the handlers over svc.
func NewHandlers(svc *registry.Service) *Handlers {
	return &Handlers{svc: svc}
}

// Methods registers every handler into a new method set.
func (h *Handlers) Methods() *Methods {
	ms := NewMethods()
	ms.RegisterMethod(GET, "/stats", h.GetStats)
	ms.RegisterMethod(GET_ONE, "/stats/:set", h.GetStatsOf)
	ms.RegisterMethod(GET, "/structure/packages", h.GetPackagesStructure)
	ms.RegisterMethod(GET, "/integrity", h.GetIntegrity)
	ms.RegisterMethod(GET, "/users", h.GetUsers)
	ms.RegisterMethod(GET_ONE, "/users/:name", h.GetUser)
	ms.RegisterMethod(POST, "/users", h.PostUser)
	ms.RegisterMethod(PUT, "/users/:name", h.PutUser)
	ms.RegisterMethod(DELETE, "/users/:name", h.DeleteUser)
	ms.RegisterMethod(GET, "/packages/:sender", h.GetPackages)
	ms.RegisterMethod(POST, "/packages", h.PostPackage)
	ms.RegisterMethod(DELETE, "/packages/:sender/:id", h.DeletePackage)
	ms.RegisterMethod(POST, "/packages/:sender/purge", h.PurgePackages)
	ms.RegisterMethod(GET, "/reports", h.GetReports)
	ms.RegisterMethod(GET_ONE, "/reports/:id", h.GetReport)
	ms.RegisterMethod(POST, "/reports", h.PostReport)
	ms.RegisterMethod(DELETE, "/reports/:id", h.DeleteReport)
	return ms
}

// Mount binds the registry's REST methods on r, each behind the given middleware.
func Mount(r gin.IRoutes, svc *registry.Service, middleware ...gin.HandlerFunc) error {
	return NewHandlers(svc).Methods().Bind(r, middleware...)
}

// GetStats responds with the statistics of every record set.
// @Router /stats [get]
func (h *Handlers) GetStats(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, h.svc.Stats())
}

// GetStatsOf responds with the statistics of the record set named by the set parameter.
// @Router /stats/{set} [get]
func (h *Handlers) GetStatsOf(c *gin.Context) {
	st, err := h.svc.StatsOf(c.Param("set"))
	if err != nil {
		fail(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, st)
}

// GetPackagesStructure responds with the packages sender tree, node colors included.
// @Router /structure/packages [get]
func (h *Handlers) GetPackagesStructure(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, h.svc.PackagesStructure())
}

// GetIntegrity runs the registry's integrity check.
// @Router /integrity [get]
func (h *Handlers) GetIntegrity(c *gin.Context) {
	if err := h.svc.CheckIntegrity(); err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"valid": false, "message": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"valid": true})
}

// GetUsers responds with all users, or with those whose username starts with the prefix query.
// @Router /users [get]
func (h *Handlers) GetUsers(c *gin.Context) {
	if prefix := c.Query("prefix"); prefix != "" {
		c.IndentedJSON(http.StatusOK, h.svc.FindUsersByPrefix(prefix))
		return
	}
	c.IndentedJSON(http.StatusOK, h.svc.Users())
}

// GetUser responds with the user named by the name parameter.
// @Router /users/{name} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	name := c.Param("name")
	u, ok := h.svc.GetUser(name)
	if !ok {
		fail(c, idxstore.NewError(idxstore.NotFound, name))
		return
	}
	c.IndentedJSON(http.StatusOK, u)
}

// PostUser registers the user in the request body.
// @Router /users [post]
func (h *Handlers) PostUser(c *gin.Context) {
	var u registry.User
	if err := c.ShouldBindJSON(&u); err != nil {
		fail(c, idxstore.Errorf(idxstore.InvalidArgument, "%v", err))
		return
	}
	if err := h.svc.AddUser(u); err != nil {
		fail(c, err)
		return
	}
	u, _ = h.svc.GetUser(u.Username)
	c.IndentedJSON(http.StatusCreated, u)
}

// PutUser replaces the details of the user named by the name parameter.
// @Router /users/{name} [put]
func (h *Handlers) PutUser(c *gin.Context) {
	var u registry.User
	if err := c.ShouldBindJSON(&u); err != nil {
		fail(c, idxstore.Errorf(idxstore.InvalidArgument, "%v", err))
		return
	}
	u.Username = c.Param("name")
	if err := h.svc.UpdateUser(u); err != nil {
		fail(c, err)
		return
	}
	u, _ = h.svc.GetUser(u.Username)
	c.IndentedJSON(http.StatusOK, u)
}

// DeleteUser removes the user named by the name parameter. With cascade=true the user's
// packages are removed too.
// @Router /users/{name} [delete]
func (h *Handlers) DeleteUser(c *gin.Context) {
	cascade, _ := strconv.ParseBool(c.Query("cascade"))
	n, err := h.svc.DeleteUser(c.Param("name"), cascade)
	if err != nil {
		fail(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"deleted": true, "packages_removed": n})
}

// GetPackages responds with the packages of the sender parameter.
// @Router /packages/{sender} [get]
func (h *Handlers) GetPackages(c *gin.Context) {
	pkgs := h.svc.PackagesFrom(c.Param("sender"))
	if pkgs == nil {
		pkgs = []registry.Package{}
	}
	c.IndentedJSON(http.StatusOK, pkgs)
}

// PostPackage records the package in the request body.
// @Router /packages [post]
func (h *Handlers) PostPackage(c *gin.Context) {
	var p registry.Package
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, idxstore.Errorf(idxstore.InvalidArgument, "%v", err))
		return
	}
	p, err := h.svc.AddPackage(p)
	if err != nil {
		fail(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, p)
}

// DeletePackage removes the package of the sender parameter with the id parameter.
// @Router /packages/{sender}/{id} [delete]
func (h *Handlers) DeletePackage(c *gin.Context) {
	id, err := idxstore.ParseUUID(c.Param("id"))
	if err != nil {
		fail(c, idxstore.Errorf(idxstore.InvalidArgument, "package id: %v", err))
		return
	}
	ok, err := h.svc.RemovePackage(c.Param("sender"), id)
	if err != nil {
		fail(c, err)
		return
	}
	if !ok {
		fail(c, idxstore.NewError(idxstore.NotFound, id.String()))
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"deleted": true})
}

type purgeRequest struct {
	Expression string `json:"expression" binding:"required"`
}

// PurgePackages removes the packages of the sender parameter matching the CEL expression in the
// request body, e.g. {"expression": "record.weight > 20.0"}.
// @Router /packages/{sender}/purge [post]
func (h *Handlers) PurgePackages(c *gin.Context) {
	var req purgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, idxstore.Errorf(idxstore.InvalidArgument, "%v", err))
		return
	}
	n, err := h.svc.RemovePackagesWhere(c.Param("sender"), req.Expression)
	if err != nil {
		fail(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"removed": n})
}

// GetReports responds with every report, oldest first.
// @Router /reports [get]
func (h *Handlers) GetReports(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, h.svc.Reports())
}

// GetReport responds with the report having the id parameter.
// @Router /reports/{id} [get]
func (h *Handlers) GetReport(c *gin.Context) {
	id, err := idxstore.ParseUUID(c.Param("id"))
	if err != nil {
		fail(c, idxstore.Errorf(idxstore.InvalidArgument, "report id: %v", err))
		return
	}
	r, ok := h.svc.GetReport(id)
	if !ok {
		fail(c, idxstore.NewError(idxstore.NotFound, id.String()))
		return
	}
	c.IndentedJSON(http.StatusOK, r)
}

// PostReport stores the report in the request body.
// @Router /reports [post]
func (h *Handlers) PostReport(c *gin.Context) {
	var r registry.Report
	if err := c.ShouldBindJSON(&r); err != nil {
		fail(c, idxstore.Errorf(idxstore.InvalidArgument, "%v", err))
		return
	}
	r, err := h.svc.AddReport(r)
	if err != nil {
		fail(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, r)
}

// DeleteReport removes the report having the id parameter.
// @Router /reports/{id} [delete]
func (h *Handlers) DeleteReport(c *gin.Context) {
	id, err := idxstore.ParseUUID(c.Param("id"))
	if err != nil {
		fail(c, idxstore.Errorf(idxstore.InvalidArgument, "report id: %v", err))
		return
	}
	ok, err := h.svc.DeleteReport(id)
	if err != nil {
		fail(c, err)
		return
	}
	if !ok {
		fail(c, idxstore.NewError(idxstore.NotFound, id.String()))
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"deleted": true})
}
