package worldgen

import (
	"github.com/aquilax/go-perlin"
)

// noise - шум Перлина с нормализацией в [0, 1]
type noise struct {
	p *perlin.Perlin
}

func newNoise(seed int64) noise {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав
	return noise{p: perlin.NewPerlin(alpha, beta, n, seed)}
}

// at1 возвращает значение одномерного шума от 0 до 1
func (n noise) at1(x float64) float64 {
	return clamp01((n.p.Noise1D(x) + 1.0) / 2.0)
}

// at2 возвращает значение двумерного шума от 0 до 1
func (n noise) at2(x, y float64) float64 {
	return clamp01((n.p.Noise2D(x, y) + 1.0) / 2.0)
}

// turbulence складывает три октавы с убывающим весом, результат в [-1, 1]
func (n noise) turbulence(x, y float64) float64 {
	value := 0.0
	size := 1.0
	for i := 0; i < 3; i++ {
		value += n.p.Noise2D(x/size, y/size) * size
		size /= 2.0
	}
	return value / 2.0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
