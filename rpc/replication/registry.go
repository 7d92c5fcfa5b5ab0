package replication

import (
	"sort"

	"github.com/puzpuzpuz/xsync/v3"
)

// Registry holds the attached followers.
//
// Thread-safety: all methods are safe for concurrent use.
type Registry struct {
	followers *xsync.MapOf[string, *Follower]
}

func NewRegistry() *Registry {
	return &Registry{followers: xsync.NewMapOf[string, *Follower]()}
}

// Add registers f.
func (r *Registry) Add(f *Follower) {
	r.followers.Store(f.Key(), f)
}

// Remove deregisters f and reports whether it was registered.
func (r *Registry) Remove(f *Follower) bool {
	_, loaded := r.followers.LoadAndDelete(f.Key())
	return loaded
}

// Len returns the number of registered followers, synced or not.
func (r *Registry) Len() int {
	return r.followers.Size()
}

// Synced returns the synced followers ordered by id, i.e. by registration time.
func (r *Registry) Synced() []*Follower {
	out := make([]*Follower, 0, r.followers.Size())
	r.followers.Range(func(_ string, f *Follower) bool {
		if f.Synced() {
			out = append(out, f)
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Compare(out[j].ID) < 0 })
	return out
}
