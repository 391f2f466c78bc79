package linalg

import (
	"fmt"

	"github.com/san-kum/epicycle/internal/dynamo"
)

var (
	ErrDivideByZero = fmt.Errorf("linalg: divide by zero: %w", dynamo.ErrDegenerateInput)
	ErrSingular     = fmt.Errorf("linalg: singular matrix: %w", dynamo.ErrDegenerateInput)
	ErrDegree       = fmt.Errorf("linalg: polynomial degree above %d: %w", PolyMaxDeg, dynamo.ErrCapacity)
)
