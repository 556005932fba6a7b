package tree

// Node is one folder of a snapshot. Files and Subfolders are nil when the
// folder has no children of that kind, or when its listing failed.
type Node struct {
	Name       string   `json:"name"`
	ID         string   `json:"id"`
	Files      []string `json:"files"`
	Subfolders []*Node  `json:"subfolders"`
}

func NewNode(id, name string) *Node {
	return &Node{ID: id, Name: name}
}

//AddFile appends a file name, keeping the nil-when-empty shape intact
func (n *Node) AddFile(name string) {
	n.Files = append(n.Files, name)
}

// Count returns the number of folders (including n) and files in the tree.
func (n *Node) Count() (folders, files int) {
	if n == nil {
		return 0, 0
	}
	folders, files = 1, len(n.Files)
	for _, s := range n.Subfolders {
		d, f := s.Count()
		folders += d
		files += f
	}
	return folders, files
}

// Clone returns a deep copy of the tree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Name: n.Name, ID: n.ID}
	if len(n.Files) > 0 {
		c.Files = append([]string(nil), n.Files...)
	}
	if len(n.Subfolders) > 0 {
		c.Subfolders = make([]*Node, len(n.Subfolders))
		for i, s := range n.Subfolders {
			c.Subfolders[i] = s.Clone()
		}
	}
	return c
}

// Folder returns the direct subfolder called name. On duplicate names the
// last one wins, matching how snapshots are correlated.
func (n *Node) Folder(name string) *Node {
	if n == nil {
		return nil
	}
	var found *Node
	for _, s := range n.Subfolders {
		if s.Name == name {
			found = s
		}
	}
	return found
}

//normalize collapses empty child lists to nil
func (n *Node) normalize() {
	if len(n.Files) == 0 {
		n.Files = nil
	}
	if len(n.Subfolders) == 0 {
		n.Subfolders = nil
	}
}
