package utils

import "math"

// MetersPerDegreeLat - длина градуса широты, используемая при оценке размеров сетки
const MetersPerDegreeLat = 111000.0

// MetersPerDegreeLon возвращает длину градуса долготы на широте latDeg.
// Приближение сферической Земли: годится для областей много меньше радиуса Земли.
func MetersPerDegreeLon(latDeg float64) float64 {
	return MetersPerDegreeLat * math.Cos(latDeg*math.Pi/180.0)
}

// ValidateCoordinates проверяет валидность координат
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Clamp ограничивает v интервалом [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
