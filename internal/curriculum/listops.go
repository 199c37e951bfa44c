package curriculum

// TopicID and QuestionID are the id accessors used with the list helpers.
func TopicID(t Topic) string       { return t.ID }
func QuestionID(q Question) string { return q.ID }
func CourseID(c Course) string     { return c.ID }

// IndexOf returns the position of the element whose id matches, or -1.
func IndexOf[T any](items []T, id string, idOf func(T) string) int {
	for i, it := range items {
		if idOf(it) == id {
			return i
		}
	}
	return -1
}

// Replace finds the element with the given id, transforms it with fn and returns a new
// slice with the result at the same index. The input slice is never modified.
// A missing id returns ok=false.
func Replace[T any](items []T, id string, idOf func(T) string, fn func(T) (T, error)) ([]T, bool, error) {
	i := IndexOf(items, id, idOf)
	if i < 0 {
		return items, false, nil
	}
	updated, err := fn(items[i])
	if err != nil {
		return items, true, err
	}
	out := make([]T, len(items))
	copy(out, items)
	out[i] = updated
	return out, true, nil
}

// Remove returns a new slice without the element with the given id.
// A missing id returns the input unchanged and ok=false.
func Remove[T any](items []T, id string, idOf func(T) string) ([]T, bool) {
	i := IndexOf(items, id, idOf)
	if i < 0 {
		return items, false
	}
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...), true
}

// Append returns a new slice with v added at the end.
func Append[T any](items []T, v T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, items...)
	return append(out, v)
}
