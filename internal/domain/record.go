package domain

import (
	"errors"
	"math"
	"sort"
	"time"
)

var (
	// ErrNoPosition возвращается, когда у записи нет вычислимой позиции
	ErrNoPosition = errors.New("record has no resolvable position")

	// ErrNoProperty возвращается, когда у записи нет запрошенного свойства
	ErrNoProperty = errors.New("record has no such property")
)

// Position - геодезическая позиция: градусы для Lon/Lat, метры для Alt
type Position struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
	Alt float64 `json:"alt"`
}

// Valid проверяет, что все координаты конечны
func (p Position) Valid() bool {
	return !math.IsNaN(p.Lon) && !math.IsNaN(p.Lat) && !math.IsNaN(p.Alt) &&
		!math.IsInf(p.Lon, 0) && !math.IsInf(p.Lat, 0) && !math.IsInf(p.Alt, 0)
}

// Record - источник геопривязанной точки. Позиция и свойства вычисляются
// на момент времени at и могут меняться во времени.
type Record interface {
	// Position возвращает позицию записи на момент at
	Position(at time.Time) (Position, error)

	// Property возвращает значение свойства на момент at
	Property(name string, at time.Time) (any, error)
}

// Weighted - опциональная возможность записи иметь вес (по умолчанию 1)
type Weighted interface {
	Weight() float64
}

// PointRecord - статическая точка (из запроса или из БД)
type PointRecord struct {
	ID         string         `json:"id" db:"id"`
	Lon        *float64       `json:"lon" db:"lon"`
	Lat        *float64       `json:"lat" db:"lat"`
	Alt        float64        `json:"alt" db:"alt"`
	Category   string         `json:"category,omitempty" db:"category"`
	W          *float64       `json:"weight,omitempty" db:"weight"`
	Properties map[string]any `json:"properties,omitempty" db:"-"`
}

// Position возвращает позицию точки; время не учитывается
func (r *PointRecord) Position(_ time.Time) (Position, error) {
	if r.Lon == nil || r.Lat == nil {
		return Position{}, ErrNoPosition
	}
	p := Position{Lon: *r.Lon, Lat: *r.Lat, Alt: r.Alt}
	if !p.Valid() {
		return Position{}, ErrNoPosition
	}
	return p, nil
}

// Property ищет свойство в Properties; "category" отдается из поля Category
func (r *PointRecord) Property(name string, _ time.Time) (any, error) {
	if v, ok := r.Properties[name]; ok {
		return v, nil
	}
	if name == "category" && r.Category != "" {
		return r.Category, nil
	}
	return nil, ErrNoProperty
}

// Weight возвращает вес точки
func (r *PointRecord) Weight() float64 {
	if r.W == nil {
		return 1
	}
	return *r.W
}

// TimedPosition - отсчет траектории
type TimedPosition struct {
	Time     time.Time `json:"time"`
	Position Position  `json:"position"`
}

// TrackRecord - запись с позицией, меняющейся во времени.
// Между отсчетами позиция интерполируется линейно, вне интервала отсчетов
// позиция отсутствует.
type TrackRecord struct {
	ID         string          `json:"id"`
	Samples    []TimedPosition `json:"samples"`
	Properties map[string]any  `json:"properties,omitempty"`
}

// NewTrackRecord создает TrackRecord с отсортированными по времени отсчетами
func NewTrackRecord(id string, samples []TimedPosition, props map[string]any) *TrackRecord {
	sorted := make([]TimedPosition, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})
	return &TrackRecord{ID: id, Samples: sorted, Properties: props}
}

// Position интерполирует позицию на момент at
func (r *TrackRecord) Position(at time.Time) (Position, error) {
	n := len(r.Samples)
	if n == 0 {
		return Position{}, ErrNoPosition
	}
	if at.IsZero() {
		return r.Samples[0].Position, nil
	}
	if at.Before(r.Samples[0].Time) || at.After(r.Samples[n-1].Time) {
		return Position{}, ErrNoPosition
	}

	i := sort.Search(n, func(i int) bool { return !r.Samples[i].Time.Before(at) })
	if r.Samples[i].Time.Equal(at) || i == 0 {
		return r.Samples[i].Position, nil
	}

	a, b := r.Samples[i-1], r.Samples[i]
	t := float64(at.Sub(a.Time)) / float64(b.Time.Sub(a.Time))
	return Position{
		Lon: a.Position.Lon + (b.Position.Lon-a.Position.Lon)*t,
		Lat: a.Position.Lat + (b.Position.Lat-a.Position.Lat)*t,
		Alt: a.Position.Alt + (b.Position.Alt-a.Position.Alt)*t,
	}, nil
}

// Property возвращает статическое свойство трека
func (r *TrackRecord) Property(name string, _ time.Time) (any, error) {
	if v, ok := r.Properties[name]; ok {
		return v, nil
	}
	return nil, ErrNoProperty
}
