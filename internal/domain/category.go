package domain

type CategoryType string

const (
	CategoryTypeExpense CategoryType = "expense"
	CategoryTypeIncome  CategoryType = "income"
)

// Default presentation values for new categories
const (
	DefaultCategoryIcon  = "📝"
	DefaultCategoryColor = "#6C8EB6"
)

// IsValid reports whether the type is one of the known category types
func (t CategoryType) IsValid() bool {
	return t == CategoryTypeExpense || t == CategoryTypeIncome
}

// Category is a labeled bucket for transactions. Categories are stored flat;
// ParentID links a child to its parent.
type Category struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Icon     string       `json:"icon"`
	Color    string       `json:"color"`
	Type     CategoryType `json:"type"`
	ParentID *string      `json:"parentId,omitempty"`
}

// EntityID implements Entity
func (c Category) EntityID() string {
	return c.ID
}

// CategoryNode is a category with its children, used for tree rendering
type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children,omitempty"`
}

// BuildCategoryTree arranges a flat category list into a forest. Categories
// whose parent is missing become roots. Sibling order follows input order.
func BuildCategoryTree(categories []Category) []*CategoryNode {
	nodes := make(map[string]*CategoryNode, len(categories))
	for _, c := range categories {
		nodes[c.ID] = &CategoryNode{Category: c}
	}

	roots := make([]*CategoryNode, 0)
	for _, c := range categories {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok && parent != node {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// DescendantIDs returns id and the ids of every category below it
func DescendantIDs(categories []Category, id string) map[string]bool {
	children := make(map[string][]string)
	for _, c := range categories {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}

	result := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range children[current] {
			if !result[child] {
				result[child] = true
				queue = append(queue, child)
			}
		}
	}
	return result
}

// FindCategory returns the category with the given id, if present
func FindCategory(categories []Category, id string) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
