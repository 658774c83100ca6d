package gateway

import "github.com/arzzra/h324m/pkg/h324media"

// Session граница сессии H.324M: логические каналы с медиа единицами
// и пользовательский ввод H.245. Реализации не обязаны быть
// потокобезопасными, Bridge вызывает их из одной горутины.
type Session interface {
	// GetFrame возвращает очередную принятую медиа единицу
	GetFrame() (h324media.Frame, bool)

	// SendFrame передает медиа единицу в логический канал
	SendFrame(f h324media.Frame) error

	// GetUserInput возвращает очередной принятый пользовательский ввод
	GetUserInput() (string, bool)

	// SendUserInput передает пользовательский ввод удаленной стороне
	SendUserInput(input string) error
}

// Pumper реализуется сессиями, которым нужен периодический вызов для
// продвижения подуровня мультиплекса. Bridge вызывает Pump перед опросом.
type Pumper interface {
	Pump() int
}
