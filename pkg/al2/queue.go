package al2

// fifo очередь с передачей владения: элемент извлекается только с головы,
// добавляется только в хвост, порядок никогда не меняется.
type fifo[T any] struct {
	items []T
	head  int
}

func (q *fifo[T]) push(v T) {
	q.items = append(q.items, v)
}

func (q *fifo[T]) front() (T, bool) {
	var zero T
	if q.head >= len(q.items) {
		return zero, false
	}
	return q.items[q.head], true
}

// pop удаляет голову очереди и возвращает новую длину
func (q *fifo[T]) pop() int {
	if q.head >= len(q.items) {
		return 0
	}
	var zero T
	q.items[q.head] = zero
	q.head++

	// Уплотняем срез, когда извлечена большая часть элементов
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 32 && q.head*2 > len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return q.len()
}

func (q *fifo[T]) len() int {
	return len(q.items) - q.head
}
