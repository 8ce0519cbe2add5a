package asset

import "errors"

// ErrUnknownAsset is returned when the selected asset id is not among the
// pages fetched so far.
var ErrUnknownAsset = errors.New("asset: selected asset not loaded")
