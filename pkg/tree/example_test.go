package tree_test

import (
	"fmt"

	"github.com/devtoc/infograph/pkg/tree"
)

func ExampleInsertLeaf() {
	t := tree.Empty()
	t = tree.InsertLeaf(t, "A", "")
	t = tree.InsertLeaf(t, "B", "")
	t = tree.InsertLeaf(t, "C", "A")

	fmt.Println(tree.Flatten(t))
	// Output: [A C B]
}

func ExampleFlatten() {
	t := tree.Branch("div", nil,
		tree.Leaf("title"),
		tree.Branch("section", nil, tree.Leaf("chart"), tree.Leaf("caption")),
	)
	fmt.Println(tree.Flatten(t))
	// Output: [title chart caption]
}
