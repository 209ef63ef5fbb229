package broadcast

import "errors"

// ErrClosed возвращается после закрытия шины
var ErrClosed = errors.New("broadcaster closed")
