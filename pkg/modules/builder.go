package modules

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Jakobo/eyeglass/pkg/descriptor"
	"github.com/Jakobo/eyeglass/pkg/semver"
)

// maxConcurrentReads bounds descriptor reads per traversal level
const maxConcurrentReads = 8

// Pinned is a module directory named explicitly in configuration rather
// than found through dependencies
type Pinned struct {
	Path string
	// Name overrides the logical name the module declares
	Name string
}

// BuildOptions configures Build
type BuildOptions struct {
	Root    string
	Modules []Pinned

	// UseGlobalCache reuses descriptors across builds in this process
	UseGlobalCache bool
	// Cache overrides the cache used when UseGlobalCache is set
	Cache *Cache

	// EyeglassVersion is checked against each module's "needs" range.
	// Empty skips the check.
	EyeglassVersion string

	Logger *logrus.Logger
}

// pending is one dependency edge waiting to be resolved
type pending struct {
	name   string
	rng    string
	from   *Node
	pinned *Pinned

	location string
	desc     *descriptor.Descriptor
	err      error
}

type builder struct {
	opts       BuildOptions
	cache      *Cache
	log        *logrus.Logger
	graph      *Graph
	byLocation map[string]*Node
	collided   map[string]bool
}

// Build walks the installed packages beneath opts.Root and returns the
// module graph. Only an unusable root is an error; every other problem is
// recorded in Graph.Issues.
func Build(ctx context.Context, opts BuildOptions) (*Graph, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRootNotFound, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotDirectory, root)
	}
	root = canonical(root)

	b := &builder{
		opts:       opts,
		cache:      selectCache(opts),
		log:        opts.Logger,
		byLocation: make(map[string]*Node),
		collided:   make(map[string]bool),
	}
	if b.log == nil {
		b.log = logrus.New()
	}

	rootNode, err := b.rootNode(root)
	if err != nil {
		return nil, err
	}
	b.graph = newGraph(rootNode)
	b.byLocation[root] = rootNode

	// Pinned modules come first so they win name collisions.
	level := make([]*pending, 0, len(opts.Modules)+len(rootNode.Requirements))
	for i := range opts.Modules {
		pinned := opts.Modules[i]
		level = append(level, &pending{name: pinned.Name, rng: "*", from: rootNode, pinned: &pinned})
	}
	level = append(level, b.requirementsOf(rootNode)...)

	for depth := 0; len(level) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := b.fetch(ctx, level); err != nil {
			return nil, err
		}

		var next []*pending
		for _, p := range level {
			next = append(next, b.visit(p)...)
		}
		b.log.Debugf("Module graph level %d: %d dependencies, %d queued", depth, len(level), len(next))
		level = next
	}

	b.log.Debugf("Module graph for %s has %d modules", root, b.graph.Len())
	return b.graph, nil
}

func selectCache(opts BuildOptions) *Cache {
	if !opts.UseGlobalCache {
		return NewCache()
	}
	if opts.Cache != nil {
		return opts.Cache
	}
	return SharedCache()
}

func (b *builder) rootNode(root string) (*Node, error) {
	desc, err := b.cache.Load(root, descriptor.Read)
	if err != nil {
		if errors.Is(err, descriptor.ErrNoDescriptor) || errors.Is(err, fs.ErrNotExist) {
			return newRootNode(root), nil
		}
		return nil, fmt.Errorf("failed to read root package: %w", err)
	}

	node := newNode(desc, root)
	node.IsRoot = true
	if node.Name == "" {
		node.Name = RootName
	}
	return node, nil
}

func (b *builder) requirementsOf(n *Node) []*pending {
	reqs := make([]*pending, 0, len(n.Requirements))
	for _, req := range n.Requirements {
		reqs = append(reqs, &pending{name: req.Name, rng: req.Range, from: n})
	}
	return reqs
}

// fetch locates and reads every pending dependency of one level
// concurrently. Results are stored on each entry so that visit can process
// them in declaration order.
func (b *builder) fetch(ctx context.Context, level []*pending) error {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)

	for _, p := range level {
		p := p
		g.Go(func() error {
			if p.pinned != nil {
				p.location = canonical(p.pinned.Path)
			} else {
				location, ok := Locate(p.from.Dir, p.name)
				if !ok {
					return nil
				}
				p.location = location
			}
			p.desc, p.err = b.cache.Load(p.location, descriptor.Read)
			return nil
		})
	}

	return g.Wait()
}

// visit links one resolved dependency and returns the dependencies of a
// newly discovered module
func (b *builder) visit(p *pending) []*pending {
	requiredBy := p.from.Name

	if p.location == "" {
		b.graph.Issues.Dependencies.Missing = append(b.graph.Issues.Dependencies.Missing, MissingDependency{
			Name:       p.name,
			Range:      p.rng,
			RequiredBy: requiredBy,
		})
		return nil
	}
	if p.err != nil {
		name := p.name
		if name == "" {
			name = p.location
		}
		b.graph.Issues.Dependencies.Missing = append(b.graph.Issues.Dependencies.Missing, MissingDependency{
			Name:       name,
			Range:      p.rng,
			RequiredBy: requiredBy,
			Reason:     p.err.Error(),
		})
		return nil
	}
	if p.pinned == nil && !p.desc.IsModule() {
		return nil
	}

	var next []*pending
	node, seen := b.byLocation[p.location]
	if !seen {
		node, next = b.discover(p)
	}

	p.from.link(node)
	b.checkRange(p, node)
	return next
}

func (b *builder) discover(p *pending) (*Node, []*pending) {
	candidate := newNode(p.desc, p.location)
	if p.pinned != nil && p.pinned.Name != "" {
		candidate.Name = p.pinned.Name
	}
	if candidate.Name == "" {
		candidate.Name = p.name
	}

	if winner, taken := b.graph.Find(candidate.Name); taken {
		if !b.collided[p.location] {
			b.collided[p.location] = true
			b.graph.Issues.Collisions = append(b.graph.Issues.Collisions, Collision{
				Name:      candidate.Name,
				Winner:    winner.Dir,
				Ignored:   p.location,
				ClaimedBy: p.from.Name,
			})
			b.log.Debugf("Module %s at %s ignored, already provided by %s", candidate.Name, p.location, winner.Dir)
		}
		return winner, nil
	}

	b.graph.register(candidate)
	b.byLocation[p.location] = candidate
	b.checkNeeds(candidate)
	b.log.Debugf("Discovered module %s@%s at %s", candidate.Name, candidate.VersionString(), candidate.Dir)
	return candidate, b.requirementsOf(candidate)
}

func (b *builder) checkRange(p *pending, node *Node) {
	if p.pinned != nil {
		return
	}

	constraint, err := semver.ParseConstraint(p.rng)
	if err != nil {
		b.graph.Issues.Dependencies.Versions = append(b.graph.Issues.Dependencies.Versions, VersionMismatch{
			Name:       node.Name,
			Version:    node.VersionString(),
			Range:      p.rng,
			RequiredBy: p.from.Name,
			Reason:     "invalid version range",
		})
		return
	}
	if semver.Satisfies(node.Version, constraint) {
		return
	}

	b.graph.Issues.Dependencies.Versions = append(b.graph.Issues.Dependencies.Versions, VersionMismatch{
		Name:       node.Name,
		Version:    node.VersionString(),
		Range:      p.rng,
		RequiredBy: p.from.Name,
	})
}

func (b *builder) checkNeeds(node *Node) {
	if node.Needs == "" || b.opts.EyeglassVersion == "" {
		return
	}

	version, err := semver.ParseVersion(b.opts.EyeglassVersion)
	if err != nil {
		return
	}
	constraint, err := semver.ParseConstraint(node.Needs)
	if err == nil && semver.Satisfies(version, constraint) {
		return
	}

	b.graph.Issues.Engine.Incompatible = append(b.graph.Issues.Engine.Incompatible, EngineMismatch{
		Name:     node.Name,
		Needs:    node.Needs,
		Eyeglass: b.opts.EyeglassVersion,
	})
}
