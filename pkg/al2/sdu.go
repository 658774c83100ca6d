package al2

// SDU (Service Data Unit) - владеющий байтовый буфер.
// Изменяется только во время сборки; после постановки в очередь
// содержимое считается неизменяемым.
type SDU struct {
	data []byte
}

// NewSDU создает SDU с копией переданных байт
func NewSDU(p []byte) SDU {
	data := make([]byte, len(p))
	copy(data, p)
	return SDU{data: data}
}

// Push добавляет один байт
func (s *SDU) Push(b byte) {
	s.data = append(s.data, b)
}

// PushBytes добавляет диапазон байт
func (s *SDU) PushBytes(p []byte) {
	s.data = append(s.data, p...)
}

// Bytes возвращает содержимое SDU. Срез принадлежит SDU и не должен
// изменяться вызывающей стороной.
func (s SDU) Bytes() []byte {
	return s.data
}

// Len возвращает длину SDU в байтах
func (s SDU) Len() int {
	return len(s.data)
}

// Clone возвращает независимую копию
func (s SDU) Clone() SDU {
	return NewSDU(s.data)
}

// Clean очищает буфер, сохраняя выделенную память
func (s *SDU) Clean() {
	s.data = s.data[:0]
}
