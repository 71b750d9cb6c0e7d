// internal/model/tag.go
package model

type Tag struct {
	ID    int64  `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Color int    `db:"color" json:"color"`
}

func (t Tag) Columns() map[string]any {
	return map[string]any{"name": t.Name, "color": t.Color}
}
