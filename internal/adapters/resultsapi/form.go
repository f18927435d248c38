package resultsapi

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"

	"lottery-relay/internal/domain"
)

const snapshotFileName = "result.jpg"

// snapshotForm собирает multipart-тело: поля type, date, time и файл image.
func snapshotForm(snapshot domain.Snapshot) (io.Reader, string, error) {
	if len(snapshot.JPEG) == 0 {
		return nil, "", fmt.Errorf("snapshot for %s %s is empty", snapshot.Type, snapshot.Slot)
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"type", snapshot.Type},
		{"date", snapshot.Date},
		{"time", string(snapshot.Slot)},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f[0], err)
		}
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, snapshotFileName))
	header.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(snapshot.JPEG); err != nil {
		return nil, "", fmt.Errorf("write image part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
