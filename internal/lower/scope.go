package lower

// Local is a name declared in the C function being emitted
type Local struct {
	Name string
	Type string
	// Class is set when the local holds an instance of a lowered class
	Class string
}

// Scope tracks the locals of one C function. Nested Python blocks share
// the scope of their function. A local is declared where it is first
// assigned, unless it is hoisted: then its declaration goes to the top of
// the function and every assignment is a plain one.
type Scope struct {
	locals  map[string]*Local
	order   []string
	hoisted map[string]bool
}

// NewScope creates an empty scope
func NewScope() *Scope {
	return &Scope{locals: make(map[string]*Local), hoisted: make(map[string]bool)}
}

// Declare adds a local and reports whether it was new. An existing local
// keeps its original type.
func (s *Scope) Declare(name, ctype string) bool {
	if _, exists := s.locals[name]; exists {
		return false
	}
	s.locals[name] = &Local{Name: name, Type: ctype}
	s.order = append(s.order, name)
	return true
}

// DeclareOrAssign marks name as declared. It returns true on the first
// occurrence, when the caller must emit a typed declaration, and false
// afterwards, when a plain assignment is enough.
func (s *Scope) DeclareOrAssign(name, ctype string) (isNew bool) {
	return s.Declare(name, ctype)
}

// declareHere is DeclareOrAssign for emitters: it reports whether the
// typed declaration belongs at the assignment site
func (s *Scope) declareHere(name, ctype string) bool {
	return s.DeclareOrAssign(name, ctype) && !s.hoisted[name]
}

func (s *Scope) hoist(name string) {
	s.hoisted[name] = true
}

// Hoisted reports whether name is declared at the top of the function
func (s *Scope) Hoisted(name string) bool {
	return s.hoisted[name]
}

// hoistedDecls returns the declarations of the hoisted locals in
// declaration order
func (s *Scope) hoistedDecls() []string {
	var out []string
	for _, name := range s.order {
		if s.hoisted[name] {
			out = append(out, declare(s.locals[name].Type, cIdent(name))+";")
		}
	}
	return out
}

// Lookup returns the local with the given name
func (s *Scope) Lookup(name string) (*Local, bool) {
	l, ok := s.locals[name]
	return l, ok
}

// Names returns the declared names in declaration order
func (s *Scope) Names() []string {
	return append([]string(nil), s.order...)
}

// bindClass records that name holds an instance of class
func (s *Scope) bindClass(name, class string) {
	if l, ok := s.locals[name]; ok {
		l.Class = class
	}
}
