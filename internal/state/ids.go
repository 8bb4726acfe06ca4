package state

import "sync"

// IDAllocator issues strictly increasing ids in four independent spaces.
// The first id of every space is 1.
type IDAllocator struct {
	mu       sync.Mutex
	message  int64
	update   int64
	file     int64
	callback int64
}

// NextMessageID returns the next message id
func (a *IDAllocator) NextMessageID() int64 {
	return a.next(&a.message)
}

// NextUpdateID returns the next update id
func (a *IDAllocator) NextUpdateID() int64 {
	return a.next(&a.update)
}

// NextFileID returns the next file id
func (a *IDAllocator) NextFileID() int64 {
	return a.next(&a.file)
}

// NextCallbackID returns the next callback query id
func (a *IDAllocator) NextCallbackID() int64 {
	return a.next(&a.callback)
}

// Reset zeroes every counter
func (a *IDAllocator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.message, a.update, a.file, a.callback = 0, 0, 0, 0
}

func (a *IDAllocator) next(counter *int64) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	*counter++
	return *counter
}
