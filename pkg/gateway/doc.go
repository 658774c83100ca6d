// Package gateway связывает сессию H.324M с RTP ногой телефонной стороны.
//
// Медиа единицы сессии (AMR, H.263) депакетизируются в полезные нагрузки
// RFC 4867 и RFC 4629 и отправляются в RTP; входящие RTP пакеты
// пакетизируются обратно в единицы и передаются сессии. Пользовательский
// ввод H.245 переносится событиями RFC 4733 (telephone-event).
//
// Основные компоненты:
//   - Config - параметры шлюза (payload types, AL2, сокет, метрики)
//   - Session - граница сессии H.324M; LoopbackSession - сессия поверх
//     пары AL2 Sender/Receiver на каждый логический канал
//   - Leg, UDPLeg - RTP нога поверх UDP
//   - Framer - преобразование RTP пакетов и телефонных фреймов
//   - DTMFSender, DTMFReceiver - события RFC 4733
//   - DescribeLeg, ApplyAnswer - SDP предложение и обработка ответа
//   - Bridge - цикл обработки с жизненным циклом idle → running → stopped
//
// Все объекты ядра (AL2, пакетизатор, VideoTimeReference) принадлежат
// единственной горутине обработки Bridge. Вторая горутина только читает
// пакеты из ноги и передает их через канал.
package gateway
