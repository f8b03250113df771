package timeline

// Renderer draws the timeline. SetItems replaces everything on screen and
// drops any selection the renderer was showing.
type Renderer interface {
	SetItems(items []Item, groups []Group)
	SetSelection(ids []string)
}

type noopRenderer struct{}

func (noopRenderer) SetItems([]Item, []Group) {}
func (noopRenderer) SetSelection([]string)    {}
