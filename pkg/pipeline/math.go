package pipeline

import "math"

var nanValue = math.NaN()
