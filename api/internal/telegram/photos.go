package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"math"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"azure-playground/api/internal/media"
)

const photoAccepted = "Photo received. If the text spans several photos, send them together and I will read them as one page."

func (r *Router) acceptPhoto(ctx context.Context, msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	if r.Vision == nil {
		r.notConfigured(cid, "Vision")
		return
	}
	// the last size is the largest
	ph := msg.Photo[len(msg.Photo)-1]
	url, err := r.Bot.GetFileDirectURL(ph.FileID)
	if err != nil {
		r.SendError(cid, "download", err)
		return
	}
	img, err := media.Fetch(ctx, url, maxPhotoBytes)
	if err != nil {
		r.SendError(cid, "download", err)
		return
	}

	key := "chat:" + strconv.FormatInt(cid, 10)
	if msg.MediaGroupID != "" {
		key = "grp:" + msg.MediaGroupID
	}
	wait := r.Debounce
	if wait <= 0 {
		wait = defaultDebounce
	}
	for {
		bi, _ := r.batches.LoadOrStore(key, &photoBatch{ChatID: cid})
		b := bi.(*photoBatch)
		first, ok := b.add(img, wait, func() { r.processBatch(ctx, key, b) })
		if !ok {
			// taken between the load and the add
			r.batches.CompareAndDelete(key, b)
			continue
		}
		if first {
			r.send(cid, photoAccepted)
		}
		return
	}
}

func (r *Router) processBatch(ctx context.Context, key string, b *photoBatch) {
	r.batches.CompareAndDelete(key, b)
	images := b.take()
	if len(images) == 0 {
		return
	}

	page, err := stitchVertical(images)
	if err != nil {
		r.SendError(b.ChatID, "stitch", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()
	interval := r.ReadInterval
	if interval <= 0 {
		interval = defaultReadInterval
	}
	input := fmt.Sprintf("telegram photo x%d (%d bytes)", len(images), len(page))
	text, err := r.Journal.Track(ctx, "vision", "read", input, func(ctx context.Context) (string, error) {
		res, err := r.Vision.Read(ctx, media.Image{Data: page, MIME: "image/jpeg"}, "", interval)
		if err != nil {
			return "", err
		}
		return res.Text(), nil
	})
	if err != nil {
		r.SendError(b.ChatID, "OCR", err)
		return
	}
	if text == "" {
		r.send(b.ChatID, "No text found in the photo.")
		return
	}
	r.SendResult(b.ChatID, "Recognized text:", text)
}

// stitchVertical stacks the pages top to bottom, centered on a white
// background, and downsizes the result to maxPixels. A single image that
// needs no downsizing is passed through unchanged.
func stitchVertical(images [][]byte) ([]byte, error) {
	pages := make([]image.Image, 0, len(images))
	width, height := 0, 0
	for i, b := range images {
		img, _, err := image.Decode(bytes.NewReader(b))
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		pages = append(pages, img)
		width = max(width, img.Bounds().Dx())
		height += img.Bounds().Dy()
	}
	if width == 0 || height == 0 {
		return nil, errors.New("empty images")
	}
	if len(images) == 1 && width*height <= maxPixels && media.SniffMIME(images[0]) == "image/jpeg" {
		return images[0], nil
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	y := 0
	for _, p := range pages {
		pb := p.Bounds()
		x := (width - pb.Dx()) / 2
		draw.Draw(canvas, image.Rect(x, y, x+pb.Dx(), y+pb.Dy()), p, pb.Min, draw.Over)
		y += pb.Dy()
	}

	var out image.Image = canvas
	if width*height > maxPixels {
		scale := math.Sqrt(float64(maxPixels) / float64(width*height))
		out = shrink(canvas, max(1, int(float64(width)*scale)), max(1, int(float64(height)*scale)))
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// shrink is a nearest-neighbour resize.
func shrink(src *image.RGBA, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	sb := src.Bounds()
	for y := range h {
		sy := sb.Min.Y + y*sb.Dy()/h
		for x := range w {
			dst.SetRGBA(x, y, src.RGBAAt(sb.Min.X+x*sb.Dx()/w, sy))
		}
	}
	return dst
}
