package lower

// Options controls the shape of the emitted C text
type Options struct {
	// Indent is the text emitted per nesting level
	Indent string
	// EntryPoint names the function that wraps top-level statements
	EntryPoint string
	// GenericType is the fallback type for values whose type cannot be
	// inferred from their shape
	GenericType string
}

// DefaultOptions returns the options used when none are given
func DefaultOptions() Options {
	return Options{
		Indent:      "    ",
		EntryPoint:  "main",
		GenericType: "void *",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Indent == "" {
		o.Indent = d.Indent
	}
	if o.EntryPoint == "" {
		o.EntryPoint = d.EntryPoint
	}
	if o.GenericType == "" {
		o.GenericType = d.GenericType
	}
	return o
}
