package position

import (
	"fmt"

	"liquidityDesk/internal/model"
)

var (
	ErrInvalidRange      = fmt.Errorf("%w: invalid tick range", model.ErrArithmetic)
	ErrLiquidityOverflow = fmt.Errorf("%w: liquidity exceeds uint128", model.ErrArithmetic)
	ErrPoolState         = fmt.Errorf("%w: pool state", model.ErrInsufficientData)
	ErrNoPosition        = fmt.Errorf("%w: input funds no position", model.ErrInsufficientData)
	ErrSideOutOfRange    = fmt.Errorf("%w: range holds none of the input token at the current price", model.ErrInsufficientData)
)
