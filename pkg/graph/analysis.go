package graph

import "sort"

// Analysis summarises the structure of a dependency graph.
type Analysis struct {
	Roots  []string       // Nodes nothing imports
	Leaves []string       // Nodes that import nothing
	Cycles [][]string     // Circular import chains
	Layers map[string]int // Node name → longest import distance from a root
	Stats  Stats
}

// Stats provides summary metrics
type Stats struct {
	Projects      int
	Imports       int
	Roots         int
	Leaves        int
	Cycles        int
	MaxDepth      int
	AvgImports    float64
	MostImported  string
	MostImportedN int
}

// Analyze computes roots, leaves, cycles, layers and summary statistics.
func Analyze(g *Graph) *Analysis {
	a := &Analysis{Layers: make(map[string]int)}

	inDegree := make(map[string]int, len(g.Nodes))
	outDegree := make(map[string]int, len(g.Nodes))
	adj := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		inDegree[e.To]++
		outDegree[e.From]++
		adj[e.From] = append(adj[e.From], e.To)
	}

	for _, n := range g.Nodes {
		if inDegree[n.Name] == 0 {
			a.Roots = append(a.Roots, n.Name)
		}
		if outDegree[n.Name] == 0 {
			a.Leaves = append(a.Leaves, n.Name)
		}
	}

	a.Cycles = detectCycles(g, adj)
	inferLayers(g, adj, a)

	a.Stats = Stats{
		Projects: len(g.Nodes),
		Imports:  len(g.Edges),
		Roots:    len(a.Roots),
		Leaves:   len(a.Leaves),
		Cycles:   len(a.Cycles),
	}
	if len(g.Nodes) > 0 {
		a.Stats.AvgImports = float64(len(g.Edges)) / float64(len(g.Nodes))
	}
	for _, depth := range a.Layers {
		if depth > a.Stats.MaxDepth {
			a.Stats.MaxDepth = depth
		}
	}
	for _, n := range g.Nodes {
		if inDegree[n.Name] > a.Stats.MostImportedN {
			a.Stats.MostImported = n.Name
			a.Stats.MostImportedN = inDegree[n.Name]
		}
	}

	return a
}

// detectCycles finds circular import chains using DFS, visiting nodes in
// graph order so results are deterministic. Each chain is reported once,
// starting at the node where the DFS entered it.
func detectCycles(g *Graph, adj map[string][]string) [][]string {
	var cycles [][]string
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var path []string

	var dfs func(node string)
	dfs = func(node string) {
		visited[node] = true
		onStack[node] = true
		path = append(path, node)

		for _, next := range adj[node] {
			if !visited[next] {
				dfs(next)
				continue
			}
			if !onStack[next] {
				continue
			}
			for i, p := range path {
				if p == next {
					cycle := make([]string, len(path)-i)
					copy(cycle, path[i:])
					cycles = append(cycles, cycle)
					break
				}
			}
		}

		path = path[:len(path)-1]
		onStack[node] = false
	}

	for _, n := range g.Nodes {
		if !visited[n.Name] {
			dfs(n.Name)
		}
	}
	return cycles
}

// inferLayers assigns each node the length of the longest acyclic import
// chain leading to it from a root. Edges closing a cycle are ignored.
func inferLayers(g *Graph, adj map[string][]string, a *Analysis) {
	back := make(map[[2]string]bool)
	for _, cycle := range a.Cycles {
		last := cycle[len(cycle)-1]
		back[[2]string{last, cycle[0]}] = true
	}

	inDegree := make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		inDegree[n.Name] = 0
	}
	for from, tos := range adj {
		for _, to := range tos {
			if !back[[2]string{from, to}] {
				inDegree[to]++
			}
		}
	}

	queue := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if inDegree[n.Name] == 0 {
			queue = append(queue, n.Name)
			a.Layers[n.Name] = 0
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range adj[current] {
			if back[[2]string{current, next}] {
				continue
			}
			if a.Layers[current]+1 > a.Layers[next] {
				a.Layers[next] = a.Layers[current] + 1
			}
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
}

// SortedLayers returns node names grouped by layer, shallowest first.
func (a *Analysis) SortedLayers() [][]string {
	byDepth := make(map[int][]string)
	maxDepth := 0
	for name, depth := range a.Layers {
		byDepth[depth] = append(byDepth[depth], name)
		if depth > maxDepth {
			maxDepth = depth
		}
	}

	layers := make([][]string, 0, maxDepth+1)
	for d := 0; d <= maxDepth; d++ {
		names := byDepth[d]
		if len(names) == 0 {
			continue
		}
		sort.Strings(names)
		layers = append(layers, names)
	}
	return layers
}
