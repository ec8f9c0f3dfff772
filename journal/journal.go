// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package journal provides a layered key/value overlay with
// checkpoint-revert semantics. Values written since a checkpoint can be
// discarded as a unit, which is how registry operations stay atomic.
package journal

// Source supplies values for keys not written since the journal was created.
// Reads may hit persistent storage, so they can fail.
type Source func(key any) (value any, exists bool, err error)

type frame struct {
	kvs     map[any]any
	touched []any
}

func newFrame() *frame {
	return &frame{kvs: make(map[any]any)}
}

// Journal maintains a stack of write frames over a read source.
// Each frame inherits the keys of frames below it.
type Journal struct {
	src       Source
	frames    []*frame
	revisions map[any][]int
}

// New creates a journal backed by src.
func New(src Source) *Journal {
	return &Journal{
		src:       src,
		revisions: make(map[any][]int),
	}
}

// Depth returns the current stack depth.
func (j *Journal) Depth() int {
	return len(j.frames)
}

// Push opens a new write frame and returns the depth before the push.
func (j *Journal) Push() int {
	j.frames = append(j.frames, newFrame())
	return len(j.frames) - 1
}

// Pop discards the top frame, reverting all Put operations since the
// matching Push.
func (j *Journal) Pop() {
	top := j.frames[len(j.frames)-1]
	for _, key := range top.touched {
		revs := j.revisions[key]
		revs = revs[:len(revs)-1]
		if len(revs) == 0 {
			delete(j.revisions, key)
		} else {
			j.revisions[key] = revs
		}
	}
	j.frames = j.frames[:len(j.frames)-1]
}

// PopTo discards frames until the stack depth reaches depth.
func (j *Journal) PopTo(depth int) {
	for len(j.frames) > depth {
		j.Pop()
	}
}

// Get returns the newest value written for key, falling back to the
// source when no frame holds it.
func (j *Journal) Get(key any) (any, bool, error) {
	if revs, ok := j.revisions[key]; ok {
		f := j.frames[revs[len(revs)-1]]
		if v, ok := f.kvs[key]; ok {
			return v, true, nil
		}
	}
	return j.src(key)
}

// Put writes key/value into the top frame.
// It panics if no frame has been pushed.
func (j *Journal) Put(key, value any) {
	top := j.frames[len(j.frames)-1]
	if _, seen := top.kvs[key]; !seen {
		top.touched = append(top.touched, key)

		rev := len(j.frames) - 1
		j.revisions[key] = append(j.revisions[key], rev)
	}
	top.kvs[key] = value
}

// Walk visits every surviving key/value pair, oldest frame first.
// Keys rewritten in a newer frame are visited once per frame; callers
// that want only the final value should overwrite on duplicates.
func (j *Journal) Walk(fn func(key, value any) bool) {
	for _, f := range j.frames {
		for _, key := range f.touched {
			if !fn(key, f.kvs[key]) {
				return
			}
		}
	}
}
