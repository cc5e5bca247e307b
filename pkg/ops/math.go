package ops

import "math"

// nan is the shared NaN sentinel RollingMean, ZScore and Vwap emit for rows
// before their window has filled.
var nan = math.NaN()
