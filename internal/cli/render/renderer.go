package render

// Renderer writes a use case result for humans
type Renderer[T any] interface {
	Render(result T) error
}
