package catalog

import "time"

type ItemType string

// 'course', 'ebook', 'pyq', 'test', 'book'
var (
	TypeCourse ItemType = "course"
	TypeEbook  ItemType = "ebook"
	TypePYQ    ItemType = "pyq"
	TypeTest   ItemType = "test"
	TypeBook   ItemType = "book"
)

func (t ItemType) String() string {
	switch t {
	case TypeCourse, TypeEbook, TypePYQ, TypeTest, TypeBook:
		return string(t)
	default:
		return ""
	}
}

// Valid reports whether t is one of the known content types.
func (t ItemType) Valid() bool {
	return t.String() != ""
}

// Item is a sellable piece of content. Books go through the cart/order flow;
// everything else is granted through enrollments.
type Item struct {
	ItemID    string    `gorm:"column:item_id;primaryKey" json:"item_id"`
	Type      ItemType  `gorm:"column:type;index;not null" json:"type"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Price     float64   `gorm:"column:price;not null;default:0" json:"price"`
	ImageURL  string    `gorm:"column:image_url" json:"image_url"`
	IsFree    bool      `gorm:"column:is_free;not null;default:false" json:"is_free"`
	Active    bool      `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
