package classifier

import "greentrack/pkg/types"

type pixel struct {
	r, g, b    int
	brightness float64
}

func newPixel(r, g, b uint8) pixel {
	return pixel{
		r:          int(r),
		g:          int(g),
		b:          int(b),
		brightness: float64(int(r)+int(g)+int(b)) / 3,
	}
}

type bucket struct {
	category types.WasteCategory
	match    func(p pixel) bool
}

// primaryBuckets are evaluated top to bottom and the first match wins, so a
// pixel lands in at most one category.
var primaryBuckets = []bucket{
	{types.WastePlastic, isPlastic},
	{types.WasteOrganic, isOrganic},
	{types.WastePaper, isPaper},
	{types.WasteMetal, isMetal},
	{types.WasteGlass, isGlass},
	{types.WasteEwaste, isEwaste},
}

// secondaryBuckets only see pixels that no primary bucket claimed.
var secondaryBuckets = []bucket{
	{types.WasteHazardous, isWarningColor},
	{types.WasteTextile, isFabricTone},
}

func bucketFor(p pixel) (types.WasteCategory, bool) {
	for _, b := range primaryBuckets {
		if b.match(p) {
			return b.category, true
		}
	}
	for _, b := range secondaryBuckets {
		if b.match(p) {
			return b.category, true
		}
	}
	return "", false
}

func isPlastic(p pixel) bool {
	r, g, b := p.r, p.g, p.b
	return (r > 200 && g > 200 && b > 200) || // clear or white
		(abs(r-g) < 20 && abs(g-b) < 20 && p.brightness > 150) || // uniform bright colour
		(r > 100 && g < 150 && b > 100) || // coloured bottles
		(r < 100 && g < 100 && b > 150) // blue
}

func isOrganic(p pixel) bool {
	r, g, b := p.r, p.g, p.b
	return (r > 60 && r < 200 && g > 80 && g < 220 && b > 40 && b < 160) || // brown/green
		(g > r+20 && g > b+10 && g > 70 && g < 220) || // vegetation
		(r > 120 && r < 220 && g > 80 && g < 180 && b > 30 && b < 140) || // food waste
		(r > 100 && g > 120 && b > 60 && abs(r-g) < 60) ||
		(r > 140 && r < 200 && g > 100 && g < 160 && b > 50 && b < 120) // fruit and vegetables
}

func isPaper(p pixel) bool {
	r, g, b := p.r, p.g, p.b
	return (r > 200 && g > 200 && b > 180) || // white
		(r > 180 && g > 170 && b > 140 && abs(r-g) < 30) || // beige, cardboard
		(r > 100 && r < 150 && abs(r-g) < 20 && abs(g-b) < 20) // newsprint
}

func isMetal(p pixel) bool {
	r, g, b := p.r, p.g, p.b
	return (abs(r-g) < 25 && abs(g-b) < 25 && p.brightness > 80 && p.brightness < 220) || // gray
		(r > 120 && r < 200 && g > 90 && g < 170 && b > 60 && b < 140) || // copper, bronze
		(p.brightness > 140 && abs(r-g) < 30 && abs(g-b) < 30) ||
		(r > 80 && r < 180 && g > 80 && g < 180 && b > 70 && b < 170 && abs(r-g) < 40) ||
		(p.brightness > 180 && abs(r-g) < 20 && abs(g-b) < 20) // very reflective
}

func isGlass(p pixel) bool {
	r, g, b := p.r, p.g, p.b
	return (p.brightness > 180 && abs(r-g) < 40 && abs(g-b) < 40) || // clear
		(g > r+15 && g > b+10 && g > 80 && g < 200 && p.brightness > 120) || // green
		(r > 120 && r < 200 && g > 80 && g < 160 && b > 40 && b < 120 && r > g) || // brown
		(p.brightness > 160 && (abs(r-g) < 50 || abs(g-b) < 50)) ||
		(r > 150 && g > 180 && b > 150 && g > r && g > b) || // light green
		(p.brightness > 200 && abs(r-g) < 30 && abs(g-b) < 30)
}

func isEwaste(p pixel) bool {
	r, g, b := p.r, p.g, p.b
	return (r < 80 && g < 80 && b < 80) ||
		(r < 120 && g > 140 && b < 120 && g > r+30) || // circuit board green
		p.brightness < 60
}

// isWarningColor matches the saturated red, orange and yellow used on
// hazard labels.
func isWarningColor(p pixel) bool {
	return p.r >= 180 && p.b <= 90 && p.r-p.b >= 120
}

// isFabricTone matches strongly dyed pixels none of the material buckets claim.
func isFabricTone(p pixel) bool {
	hi := max(p.r, p.g, p.b)
	lo := min(p.r, p.g, p.b)
	return hi-lo >= 60
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
