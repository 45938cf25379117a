package expr

// Node is an expression tree node.
type Node interface {
	Pos() int
}

type (
	// Literal is a constant: number, string, bool, null or undefined.
	Literal struct {
		At    int
		Value any
	}

	// Ident is a name resolved against the scope.
	Ident struct {
		At   int
		Name string
	}

	// This is the apply target.
	This struct {
		At int
	}

	// Member is a static property access: obj.name or obj?.name.
	Member struct {
		At       int
		Object   Node
		Property string
		Optional bool
	}

	// Index is a computed property access: obj[expr] or obj?.[expr].
	Index struct {
		At       int
		Object   Node
		Index    Node
		Optional bool
	}

	// Call invokes a function value.
	Call struct {
		At       int
		Callee   Node
		Args     []Node
		Optional bool
	}

	// Unary is a prefix operation.
	Unary struct {
		At      int
		Op      TokenType
		Operand Node
	}

	// Binary is an arithmetic, comparison or equality operation.
	Binary struct {
		At          int
		Op          TokenType
		Left, Right Node
	}

	// Logical is a short-circuit operation (&&, ||, ??).
	Logical struct {
		At          int
		Op          TokenType
		Left, Right Node
	}

	// Conditional is test ? then : otherwise.
	Conditional struct {
		At                    int
		Test, Then, Otherwise Node
	}

	// Array is an array literal.
	Array struct {
		At    int
		Elems []Node
	}

	// Object is an object literal. Keys keep their source order.
	Object struct {
		At     int
		Keys   []string
		Values []Node
	}
)

func (n *Literal) Pos() int     { return n.At }
func (n *Ident) Pos() int       { return n.At }
func (n *This) Pos() int        { return n.At }
func (n *Member) Pos() int      { return n.At }
func (n *Index) Pos() int       { return n.At }
func (n *Call) Pos() int        { return n.At }
func (n *Unary) Pos() int       { return n.At }
func (n *Binary) Pos() int      { return n.At }
func (n *Logical) Pos() int     { return n.At }
func (n *Conditional) Pos() int { return n.At }
func (n *Array) Pos() int       { return n.At }
func (n *Object) Pos() int      { return n.At }
