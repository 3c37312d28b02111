package indexed

import "math"

// Shape tells how a set maps keys to records.
type Shape string

const (
	// OneToOne sets hold a single record per key in a hash table.
	OneToOne Shape = "hash"
	// OneToMany sets hold a bucket of records per key in a red-black tree.
	OneToMany Shape = "tree"
)

// Stats is a read-only snapshot used by reporting views and metrics.
type Stats struct {
	Name        string  `json:"name"`
	Shape       Shape   `json:"shape"`
	Size        int     `json:"size"`
	Keys        int     `json:"keys"`
	Capacity    int     `json:"capacity,omitempty"`
	LoadFactor  float64 `json:"load_factor,omitempty"`
	Tombstones  int     `json:"tombstones,omitempty"`
	Height      int     `json:"height,omitempty"`
	BlackHeight int     `json:"black_height,omitempty"`
	Valid       bool    `json:"valid"`
	// Efficiency is 1 for an ideal layout. Hash sets report live/(live+tombstones) slots,
	// tree sets report the minimal height for their key count over the actual height.
	Efficiency  float64 `json:"efficiency"`
	Relocations uint64  `json:"relocations"`
}

// Inspector is the read side shared by both set shapes.
type Inspector interface {
	Name() string
	Len() int
	Stats() Stats
	CheckIntegrity() error
	Clear()
}

var (
	_ Inspector = (*HashSet[int])(nil)
	_ Inspector = (*TreeSet[int])(nil)
)

func treeEfficiency(keys, height int) float64 {
	if keys == 0 || height == 0 {
		return 1
	}
	return math.Ceil(math.Log2(float64(keys+1))) / float64(height)
}
