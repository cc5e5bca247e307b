package batcher

import "math"

// nanValue fills a schema column for rows missing that key: a row missing a
// column yields null (NaN) in that column.
var nanValue = math.NaN()
