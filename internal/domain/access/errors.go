package access

import "errors"

var ErrWalletRequired = errors.New("wallet address is required")
