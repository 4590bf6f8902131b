package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Bounds - осевой ограничивающий объем записей.
// X - долгота (градусы), Y - широта (градусы), Z - высота (метры).
type Bounds struct {
	MinX    float64 `json:"min_x"`
	MaxX    float64 `json:"max_x"`
	MinY    float64 `json:"min_y"`
	MaxY    float64 `json:"max_y"`
	MinZ    float64 `json:"min_z"`
	MaxZ    float64 `json:"max_z"`
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
	CenterZ float64 `json:"center_z"`
}

// SpanX возвращает размах по долготе в градусах
func (b Bounds) SpanX() float64 { return b.MaxX - b.MinX }

// SpanY возвращает размах по широте в градусах
func (b Bounds) SpanY() float64 { return b.MaxY - b.MinY }

// SpanZ возвращает размах по высоте в метрах
func (b Bounds) SpanZ() float64 { return b.MaxZ - b.MinZ }

// Grid - описание равномерной сетки над Bounds
type Grid struct {
	CountX         int     `json:"count_x"`
	CountY         int     `json:"count_y"`
	CountZ         int     `json:"count_z"`
	TotalCount     int     `json:"total_count"`
	CellSizeX      float64 `json:"cell_size_x"`
	CellSizeY      float64 `json:"cell_size_y"`
	CellSizeZ      float64 `json:"cell_size_z"`
	TargetCellSize float64 `json:"target_cell_size"`
}

// Contains проверяет, что индексы лежат внутри сетки
func (g Grid) Contains(k CellKey) bool {
	return k.X >= 0 && k.X < g.CountX &&
		k.Y >= 0 && k.Y < g.CountY &&
		k.Z >= 0 && k.Z < g.CountZ
}

// CellKey - индекс ячейки в сетке
type CellKey struct {
	X int
	Y int
	Z int
}

// String возвращает лексическую форму "x,y,z"
func (k CellKey) String() string {
	return strconv.Itoa(k.X) + "," + strconv.Itoa(k.Y) + "," + strconv.Itoa(k.Z)
}

// ParseCellKey разбирает форму "x,y,z"
func ParseCellKey(s string) (CellKey, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return CellKey{}, fmt.Errorf("invalid cell key %q", s)
	}
	var idx [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return CellKey{}, fmt.Errorf("invalid cell key %q: %w", s, err)
		}
		idx[i] = v
	}
	return CellKey{X: idx[0], Y: idx[1], Z: idx[2]}, nil
}

// CellInfo - непустая ячейка сетки
type CellInfo struct {
	Key            CellKey        `json:"-"`
	X              int            `json:"x"`
	Y              int            `json:"y"`
	Z              int            `json:"z"`
	Count          int            `json:"count"`
	Weight         float64        `json:"weight"`
	CategoryTotals map[string]int `json:"category_totals,omitempty"`
	TopCategory    string         `json:"top_category,omitempty"`
	TileKey        string         `json:"tile_key,omitempty"`

	categoryOrder []string
}

// AddCategory увеличивает счетчик категории, запоминая порядок появления
func (c *CellInfo) AddCategory(key string, n int) {
	if c.CategoryTotals == nil {
		c.CategoryTotals = make(map[string]int)
	}
	if _, ok := c.CategoryTotals[key]; !ok {
		c.categoryOrder = append(c.categoryOrder, key)
	}
	c.CategoryTotals[key] += n
}

// Categories возвращает категории ячейки в порядке появления
func (c *CellInfo) Categories() []string {
	out := make([]string, len(c.categoryOrder))
	copy(out, c.categoryOrder)
	return out
}

// ResolveTopCategory вычисляет TopCategory. При равенстве побеждает
// категория, первой появившаяся в ячейке.
func (c *CellInfo) ResolveTopCategory() {
	c.TopCategory = ""
	best := 0
	for _, key := range c.categoryOrder {
		if n := c.CategoryTotals[key]; n > best {
			best = n
			c.TopCategory = key
		}
	}
}

// ClassifiedMap - разреженная карта непустых ячеек.
// Обход идет в порядке первого появления ячейки.
type ClassifiedMap struct {
	cells map[CellKey]*CellInfo
	order []CellKey
}

// NewClassifiedMap создает пустую карту
func NewClassifiedMap() *ClassifiedMap {
	return &ClassifiedMap{cells: make(map[CellKey]*CellInfo)}
}

// Len возвращает число непустых ячеек
func (m *ClassifiedMap) Len() int {
	return len(m.order)
}

// Get возвращает ячейку по ключу
func (m *ClassifiedMap) Get(k CellKey) (*CellInfo, bool) {
	c, ok := m.cells[k]
	return c, ok
}

// Has проверяет наличие непустой ячейки
func (m *ClassifiedMap) Has(k CellKey) bool {
	_, ok := m.cells[k]
	return ok
}

// Cell возвращает существующую ячейку или создает новую
func (m *ClassifiedMap) Cell(k CellKey) *CellInfo {
	if c, ok := m.cells[k]; ok {
		return c
	}
	c := &CellInfo{Key: k, X: k.X, Y: k.Y, Z: k.Z}
	m.cells[k] = c
	m.order = append(m.order, k)
	return c
}

// Keys возвращает ключи в порядке появления
func (m *ClassifiedMap) Keys() []CellKey {
	out := make([]CellKey, len(m.order))
	copy(out, m.order)
	return out
}

// Each обходит ячейки в порядке появления
func (m *ClassifiedMap) Each(fn func(c *CellInfo)) {
	for _, k := range m.order {
		fn(m.cells[k])
	}
}

// Merge добавляет ячейки other в карту, сохраняя порядок появления
func (m *ClassifiedMap) Merge(other *ClassifiedMap) {
	other.Each(func(src *CellInfo) {
		dst := m.Cell(src.Key)
		dst.Count += src.Count
		dst.Weight += src.Weight
		if dst.TileKey == "" {
			dst.TileKey = src.TileKey
		}
		for _, key := range src.categoryOrder {
			dst.AddCategory(key, src.CategoryTotals[key])
		}
	})
}
