// Package registry is the service layer over the record sets. It owns the users, packages and
// reports collections, serializes every call and keeps the cross collection rules, such as a
// user's packages being removed before the user.
package registry

import (
	"cmp"
	"errors"
	log "log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	art "github.com/plar/go-adaptive-radix-tree"

	"github.com/sharedcode/idxstore"
	"github.com/sharedcode/idxstore/cel"
	"github.com/sharedcode/idxstore/hashmap"
	"github.com/sharedcode/idxstore/indexed"
	"github.com/sharedcode/idxstore/rbtree"
)

// Collection names, as reported in Stats.
const (
	UsersSet    = "users"
	PackagesSet = "packages"
	ReportsSet  = "reports"
)

// Service is safe for concurrent use.
type Service struct {
	mu         sync.Mutex
	opts       idxstore.Options
	users      *indexed.HashSet[User]
	usernames  art.Tree
	packages   *indexed.TreeSet[Package]
	reports    *indexed.HashSet[Report]
	predicates *cel.Cache
}

// New returns an empty registry configured by opts.
func New(opts idxstore.Options) (*Service, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	pc, err := cel.NewCache(opts.PredicateCacheSize)
	if err != nil {
		return nil, err
	}
	s := &Service{opts: opts, predicates: pc}
	s.reset()
	return s, nil
}

// reset installs fresh, empty collections.
func (s *Service) reset() {
	s.users, s.usernames, s.packages, s.reports = s.newCollections()
}

func (s *Service) newCollections() (*indexed.HashSet[User], art.Tree, *indexed.TreeSet[Package], *indexed.HashSet[Report]) {
	h := hashmap.MidSquare
	if s.opts.Hasher == idxstore.HasherXXHash {
		h = hashmap.XXHash
	}
	packages := indexed.NewTreeSet(PackagesSet,
		indexed.WithKeyOf(packageKey),
		indexed.WithUniqueBy(func(a, b Package) bool { return a.ID == b.ID }))
	userOpts := []indexed.Option[User]{
		indexed.WithHasher[User](h),
		indexed.WithKeyOf(userKey),
		// Guards the two step delete: a user goes only once its packages are gone.
		indexed.WithBeforeRemove[User](func(username string) error {
			if n := packages.Count(username); n > 0 {
				return idxstore.Errorf(idxstore.DependentsExist, "user %q still sends %d packages", username, n)
			}
			return nil
		}),
	}
	reportOpts := []indexed.Option[Report]{indexed.WithHasher[Report](h), indexed.WithKeyOf(reportKey)}
	if s.opts.AllowOverwrite {
		userOpts = append(userOpts, indexed.WithOverwrite[User]())
		reportOpts = append(reportOpts, indexed.WithOverwrite[Report]())
	}
	return indexed.NewHashSet(UsersSet, s.opts.UsersCapacity, userOpts...),
		art.New(),
		packages,
		indexed.NewHashSet(ReportsSet, s.opts.ReportsCapacity, reportOpts...)
}

// AddUser registers u. Created is set when zero.
func (s *Service) AddUser(u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUser(s.users, s.usernames, u)
}

func (s *Service) addUser(users *indexed.HashSet[User], names art.Tree, u User) error {
	if strings.TrimSpace(u.Username) == "" {
		return idxstore.Errorf(idxstore.InvalidArgument, "username can't be empty")
	}
	if u.Created.IsZero() {
		u.Created = time.Now().UTC()
	}
	if err := users.Insert(u.Username, u); err != nil {
		return err
	}
	names.Insert(art.Key(u.Username), art.Value(u.Username))
	return nil
}

// GetUser returns the user named username.
func (s *Service) GetUser(username string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users.Find(username)
}

// UpdateUser replaces an existing user's details.
func (s *Service) UpdateUser(u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.users.Find(u.Username)
	if !ok {
		return idxstore.NewError(idxstore.NotFound, u.Username)
	}
	if u.Created.IsZero() {
		u.Created = old.Created
	}
	return s.users.Update(u.Username, u)
}

// Users returns every user sorted by username.
func (s *Service) Users() []User {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := make([]User, 0, s.users.Len())
	for _, u := range s.users.All() {
		r = append(r, u)
	}
	slices.SortFunc(r, func(a, b User) int { return cmp.Compare(a.Username, b.Username) })
	return r
}

// FindUsersByPrefix returns the users whose username starts with prefix, in username order.
func (s *Service) FindUsersByPrefix(prefix string) []User {
	s.mu.Lock()
	defer s.mu.Unlock()
	var r []User
	s.usernames.ForEachPrefix(art.Key(prefix), func(node art.Node) bool {
		if node.Kind() != art.Leaf {
			return true
		}
		if u, ok := s.users.Find(string(node.Key())); ok {
			r = append(r, u)
		}
		return true
	})
	return r
}

// DeleteUser removes the user named username. With cascade, the user's packages are removed
// first; without it a user that still sends packages fails with DependentsExist. It returns
// the count of packages removed.
func (s *Service) DeleteUser(username string, cascade bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.users.Contains(username) {
		return 0, idxstore.NewError(idxstore.NotFound, username)
	}
	var n int
	if cascade {
		var err error
		if n, err = s.packages.RemoveAll(username); err != nil {
			return 0, err
		}
	}
	if _, err := s.users.RemoveOne(username); err != nil {
		return n, err
	}
	s.usernames.Delete(art.Key(username))
	log.Debug("user deleted", "user", username, "packages", n)
	return n, nil
}

// AddPackage records p for an existing sender and returns it with its tracking ID set.
func (s *Service) AddPackage(p Package) (Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addPackage(s.users, s.packages, p)
}

func (s *Service) addPackage(users *indexed.HashSet[User], packages *indexed.TreeSet[Package], p Package) (Package, error) {
	if !users.Contains(p.Sender) {
		return Package{}, idxstore.Errorf(idxstore.NotFound, "sender %q is not a registered user", p.Sender)
	}
	if p.Weight < 0 {
		return Package{}, idxstore.Errorf(idxstore.InvalidArgument, "package weight %v is negative", p.Weight)
	}
	if p.ID.IsNil() {
		p.ID = idxstore.NewUUID()
	}
	if p.Created.IsZero() {
		p.Created = time.Now().UTC()
	}
	if err := packages.Insert(p.Sender, p); err != nil {
		return Package{}, err
	}
	return p, nil
}

// PackagesFrom returns the packages of sender in the order they were added.
func (s *Service) PackagesFrom(sender string) []Package {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.packages.Find(sender)
}

// RemovePackage removes the package of sender with the given tracking ID.
func (s *Service) RemovePackage(sender string, id idxstore.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.packages.RemoveOne(sender, func(p Package) bool { return p.ID == id })
}

// RemovePackagesWhere removes the packages of sender accepted by the CEL expression, which sees
// each package as `record`, e.g. `record.weight > 20.0`. It returns the count removed. An
// expression failing on any package removes nothing.
func (s *Service) RemovePackagesWhere(sender, expression string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pred, err := s.predicates.Get(expression)
	if err != nil {
		return 0, err
	}
	ids := make(map[idxstore.UUID]struct{})
	for _, p := range s.packages.Find(sender) {
		m, err := idxstore.ToMap(p)
		if err != nil {
			return 0, err
		}
		ok, err := pred.Evaluate(m)
		if err != nil {
			return 0, idxstore.Errorf(idxstore.InvalidArgument, "package %s: %v", p.ID, err)
		}
		if ok {
			ids[p.ID] = struct{}{}
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return s.packages.RemoveWhere(sender, func(p Package) bool {
		_, ok := ids[p.ID]
		return ok
	})
}

// AddReport stores r and returns it with ID and Created set when they were zero.
func (s *Service) AddReport(r Report) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return addReport(s.reports, r)
}

func addReport(reports *indexed.HashSet[Report], r Report) (Report, error) {
	if r.ID.IsNil() {
		r.ID = idxstore.NewUUID()
	}
	if r.Created.IsZero() {
		r.Created = time.Now().UTC()
	}
	if err := reports.Insert(r.ID.String(), r); err != nil {
		return Report{}, err
	}
	return r, nil
}

// GetReport returns the report with the given ID.
func (s *Service) GetReport(id idxstore.UUID) (Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reports.Find(id.String())
}

// Reports returns every report, oldest first.
func (s *Service) Reports() []Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := make([]Report, 0, s.reports.Len())
	for _, v := range s.reports.All() {
		r = append(r, v)
	}
	slices.SortFunc(r, func(a, b Report) int { return a.Created.Compare(b.Created) })
	return r
}

// DeleteReport removes the report with the given ID.
func (s *Service) DeleteReport(id idxstore.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reports.RemoveOne(id.String())
}

// Snapshot copies the registry content. Packages are in sender order.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var snap Snapshot
	for _, u := range s.users.All() {
		snap.Users = append(snap.Users, u)
	}
	for _, p := range s.packages.All() {
		snap.Packages = append(snap.Packages, p)
	}
	for _, r := range s.reports.All() {
		snap.Reports = append(snap.Reports, r)
	}
	return snap
}

// Reload replaces the whole registry content with snap. The new content is built aside and
// swapped in only when every record was accepted, so a failed reload leaves the registry as
// it was.
func (s *Service) Reload(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, names, packages, reports := s.newCollections()
	for _, u := range snap.Users {
		if err := s.addUser(users, names, u); err != nil {
			return err
		}
	}
	for _, p := range snap.Packages {
		if _, err := s.addPackage(users, packages, p); err != nil {
			return err
		}
	}
	for _, r := range snap.Reports {
		if _, err := addReport(reports, r); err != nil {
			return err
		}
	}
	s.users, s.usernames, s.packages, s.reports = users, names, packages, reports
	log.Info("registry reloaded", "users", users.Len(), "packages", packages.Len(), "reports", reports.Len())
	return nil
}

// Clear empties every collection.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// Stats returns the statistics of every collection.
func (s *Service) Stats() []indexed.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return []indexed.Stats{s.users.Stats(), s.packages.Stats(), s.reports.Stats()}
}

// StatsOf returns the statistics of the named collection.
func (s *Service) StatsOf(set string) (indexed.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.inspectors() {
		if c.Name() == set {
			return c.Stats(), nil
		}
	}
	return indexed.Stats{}, idxstore.NewError(idxstore.NotFound, set)
}

// PackagesStructure exports the shape of the packages sender tree.
func (s *Service) PackagesStructure() *rbtree.NodeView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.packages.Export()
}

// CheckIntegrity verifies every collection, the username prefix index and that every package
// sender is a registered user.
func (s *Service) CheckIntegrity() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for _, c := range s.inspectors() {
		errs = append(errs, c.CheckIntegrity())
	}
	if s.usernames.Size() != s.users.Len() {
		errs = append(errs, idxstore.Errorf(idxstore.IntegrityViolation, "prefix index holds %d names for %d users", s.usernames.Size(), s.users.Len()))
	}
	for sender := range s.packages.Keys() {
		if !s.users.Contains(sender) {
			errs = append(errs, idxstore.Errorf(idxstore.IntegrityViolation, "packages of unknown sender %q", sender))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) inspectors() []indexed.Inspector {
	return []indexed.Inspector{s.users, s.packages, s.reports}
}
