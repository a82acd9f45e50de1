package jflow

// parseContext is the Context implementation the Parser hands to Handler
// and ErrorHandler callbacks. It is a value embedded in Parser and
// refreshed before every callback, so callback implementations must copy
// out anything they need to keep.
type parseContext struct {
	line, column int
	current      byte
}

func (c *parseContext) Line() int         { return c.line }
func (c *parseContext) Column() int       { return c.column }
func (c *parseContext) CurrentChar() byte { return c.current }
