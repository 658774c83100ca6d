package gateway

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/pion/sdp/v3"
)

// Кодировки rtpmap телефонной стороны
const (
	encodingAMR      = "AMR"
	encodingH263Plus = "H263-1998"
	encodingH263     = "H263"
	encodingDTMF     = "telephone-event"
)

// DescribeLeg создает SDP предложение телефонной ноги: аудио AMR с
// telephone-event и видео H.263+/H.263 на заданных портах
func DescribeLeg(cfg Config, host string, audioPort, videoPort int) *sdp.SessionDescription {
	addrType := "IP4"
	if ip := net.ParseIP(host); ip != nil && ip.To4() == nil {
		addrType = "IP6"
	}
	connection := func() *sdp.ConnectionInformation {
		return &sdp.ConnectionInformation{
			NetworkType: "IN",
			AddressType: addrType,
			Address:     &sdp.Address{Address: host},
		}
	}

	now := uint64(time.Now().Unix())
	offer := &sdp.SessionDescription{
		Version: 0,
		Origin: sdp.Origin{
			Username:       "-",
			SessionID:      now,
			SessionVersion: now,
			NetworkType:    "IN",
			AddressType:    addrType,
			UnicastAddress: host,
		},
		SessionName:           sdp.SessionName(cfg.SessionName),
		ConnectionInformation: connection(),
		TimeDescriptions: []sdp.TimeDescription{
			{Timing: sdp.Timing{StartTime: 0, StopTime: 0}},
		},
	}

	audio := &sdp.MediaDescription{
		MediaName: sdp.MediaName{
			Media:  "audio",
			Port:   sdp.RangedPort{Value: audioPort},
			Protos: []string{"RTP", "AVP"},
			Formats: []string{
				strconv.Itoa(int(cfg.AMRPayloadType)),
				strconv.Itoa(int(cfg.DTMFPayloadType)),
			},
		},
		Attributes: []sdp.Attribute{
			rtpmap(cfg.AMRPayloadType, encodingAMR, cfg.AudioClockRate),
			sdp.NewAttribute("fmtp", fmt.Sprintf("%d octet-align=1", cfg.AMRPayloadType)),
			rtpmap(cfg.DTMFPayloadType, encodingDTMF, cfg.AudioClockRate),
			sdp.NewAttribute("fmtp", fmt.Sprintf("%d 0-15", cfg.DTMFPayloadType)),
			sdp.NewAttribute("ptime", "20"),
			sdp.NewPropertyAttribute("sendrecv"),
		},
	}

	video := &sdp.MediaDescription{
		MediaName: sdp.MediaName{
			Media:  "video",
			Port:   sdp.RangedPort{Value: videoPort},
			Protos: []string{"RTP", "AVP"},
			Formats: []string{
				strconv.Itoa(int(cfg.H263PlusPayloadType)),
				strconv.Itoa(int(cfg.H263PayloadType)),
			},
		},
		Attributes: []sdp.Attribute{
			rtpmap(cfg.H263PlusPayloadType, encodingH263Plus, cfg.VideoClockRate),
			sdp.NewAttribute("fmtp", fmt.Sprintf("%d QCIF=2", cfg.H263PlusPayloadType)),
			rtpmap(cfg.H263PayloadType, encodingH263, cfg.VideoClockRate),
			sdp.NewPropertyAttribute("sendrecv"),
		},
	}

	offer.MediaDescriptions = []*sdp.MediaDescription{audio, video}
	return offer
}

func rtpmap(pt uint8, encoding string, clockRate uint32) sdp.Attribute {
	return sdp.NewAttribute("rtpmap", fmt.Sprintf("%d %s/%d", pt, encoding, clockRate))
}

// ApplyAnswer переносит payload types удаленной стороны из rtpmap ответа
// в конфигурацию. Аудио с AMR обязательно; видео и telephone-event
// необязательны.
func ApplyAnswer(cfg Config, answer *sdp.SessionDescription) (Config, error) {
	if answer == nil {
		return cfg, fmt.Errorf("SDP ответ не может быть nil")
	}

	audio := findMedia(answer, "audio")
	if audio == nil {
		return cfg, fmt.Errorf("аудио медиа описание не найдено в SDP ответе")
	}

	maps := rtpmaps(audio)
	pt, ok := maps[encodingAMR]
	if !ok {
		return cfg, fmt.Errorf("AMR не найден в SDP ответе")
	}
	cfg.AMRPayloadType = pt
	if pt, ok := maps[encodingDTMF]; ok {
		cfg.DTMFPayloadType = pt
	}

	if video := findMedia(answer, "video"); video != nil {
		maps := rtpmaps(video)
		if pt, ok := maps[encodingH263Plus]; ok {
			cfg.H263PlusPayloadType = pt
		}
		if pt, ok := maps[encodingH263]; ok {
			cfg.H263PayloadType = pt
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("конфигурация после SDP ответа: %w", err)
	}
	return cfg, nil
}

// MediaAddr возвращает адрес host:port медиа потока из описания сессии
func MediaAddr(sd *sdp.SessionDescription, media string) (string, error) {
	md := findMedia(sd, media)
	if md == nil {
		return "", fmt.Errorf("медиа %s не найдено в SDP", media)
	}

	connection := md.ConnectionInformation
	if connection == nil {
		connection = sd.ConnectionInformation
	}
	if connection == nil || connection.Address == nil {
		return "", fmt.Errorf("информация о соединении для %s не найдена в SDP", media)
	}

	return net.JoinHostPort(connection.Address.Address, strconv.Itoa(md.MediaName.Port.Value)), nil
}

func findMedia(sd *sdp.SessionDescription, media string) *sdp.MediaDescription {
	for _, md := range sd.MediaDescriptions {
		if md.MediaName.Media == media && md.MediaName.Port.Value != 0 {
			return md
		}
	}
	return nil
}

// rtpmaps сопоставляет имя кодировки первому payload type с этим именем.
// Имена сравниваются без учета регистра и приводятся к каноническим.
func rtpmaps(md *sdp.MediaDescription) map[string]uint8 {
	out := make(map[string]uint8)
	for _, attr := range md.Attributes {
		if attr.Key != "rtpmap" {
			continue
		}
		// "<pt> <encoding>/<clock>[/<channels>]"
		fields := strings.Fields(attr.Value)
		if len(fields) != 2 {
			continue
		}
		pt, err := strconv.ParseUint(fields[0], 10, 7)
		if err != nil {
			continue
		}
		name, _, _ := strings.Cut(fields[1], "/")
		for _, known := range []string{encodingAMR, encodingH263Plus, encodingH263, encodingDTMF} {
			if strings.EqualFold(name, known) {
				if _, dup := out[known]; !dup {
					out[known] = uint8(pt)
				}
			}
		}
	}
	return out
}
