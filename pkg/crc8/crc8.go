// Package crc8 реализует 8-битную контрольную сумму, которой H.223 AL2
// защищает каждый SDU логического канала.
//
// Параметры: порождающий полином x^8+x^2+x+1 (0x07), начальное значение 0x00,
// без отражения битов и без финального XOR. Контрольное значение для строки
// "123456789" равно 0xF4.
package crc8

// Polynomial порождающий полином CRC-8 (x^8+x^2+x+1)
const Polynomial = 0x07

var table [256]byte

func init() {
	for i := 0; i < 256; i++ {
		crc := byte(i)
		for j := 0; j < 8; j++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ Polynomial
			} else {
				crc <<= 1
			}
		}
		table[i] = crc
	}
}

// Digest накапливает байты и вычисляет контрольную сумму.
// Нулевое значение готово к использованию.
type Digest struct {
	crc byte
}

// New создает пустой Digest
func New() *Digest {
	return &Digest{}
}

// Add добавляет диапазон байт. Может вызываться многократно.
func (d *Digest) Add(p []byte) {
	crc := d.crc
	for _, b := range p {
		crc = table[crc^b]
	}
	d.crc = crc
}

// AddByte добавляет один байт
func (d *Digest) AddByte(b byte) {
	d.crc = table[d.crc^b]
}

// Calc возвращает контрольную сумму накопленных байт.
// Состояние не сбрасывается.
func (d *Digest) Calc() byte {
	return d.crc
}

// Reset сбрасывает накопленное состояние
func (d *Digest) Reset() {
	d.crc = 0
}

// Checksum вычисляет контрольную сумму среза за один вызов
func Checksum(p []byte) byte {
	var d Digest
	d.Add(p)
	return d.Calc()
}

// Verify проверяет, что последний байт data является контрольной суммой
// предшествующих байт. Пустой срез не проходит проверку.
func Verify(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	return Checksum(data[:len(data)-1]) == data[len(data)-1]
}
