package tree

// Diff compares two snapshots of the same folder and returns the changes
// needed to turn old into cur. A nil old is treated as an empty folder.
//
// Each folder level emits, in order: files added (cur's order), files removed
// (old's order), changes inside folders present on both sides (cur's order),
// folders added (cur's order), folders removed (old's order). Added and
// removed folders are reported once and never expanded.
func Diff(old, cur *Node, prefix string) []Change {
	if cur == nil {
		return nil
	}
	var changes []Change
	path := cur.Name
	if prefix != "" {
		path = prefix + "/" + cur.Name
	}
	var oldFiles []string
	var oldSubs []*Node
	if old != nil {
		oldFiles, oldSubs = old.Files, old.Subfolders
	}
	//files
	oldSet := nameSet(oldFiles)
	newSet := nameSet(cur.Files)
	for _, f := range unique(cur.Files) {
		if _, ok := oldSet[f]; !ok {
			changes = append(changes, Change{Kind: FileAdded, Path: path + "/" + f})
		}
	}
	for _, f := range unique(oldFiles) {
		if _, ok := newSet[f]; !ok {
			changes = append(changes, Change{Kind: FileRemoved, Path: path + "/" + f})
		}
	}
	//folders
	oldMap, oldOrder := folderMap(oldSubs)
	newMap, newOrder := folderMap(cur.Subfolders)
	var added []Change
	for _, name := range newOrder {
		if o, ok := oldMap[name]; ok {
			changes = append(changes, Diff(o, newMap[name], path)...)
		} else {
			added = append(added, Change{Kind: FolderAdded, Path: path + "/" + name})
		}
	}
	changes = append(changes, added...)
	for _, name := range oldOrder {
		if _, ok := newMap[name]; !ok {
			changes = append(changes, Change{Kind: FolderRemoved, Path: path + "/" + name})
		}
	}
	return changes
}

func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

//unique keeps the first occurrence of each name
func unique(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// folderMap indexes folders by name. The last folder with a given name wins,
// ordered by the first time that name appears.
func folderMap(folders []*Node) (map[string]*Node, []string) {
	m := make(map[string]*Node, len(folders))
	order := make([]string, 0, len(folders))
	for _, f := range folders {
		if f == nil {
			continue
		}
		if _, ok := m[f.Name]; !ok {
			order = append(order, f.Name)
		}
		m[f.Name] = f
	}
	return m, order
}
