package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/signintech/gopdf"
	"github.com/sirupsen/logrus"

	"medisim/internal/consultation"
)

const (
	fontName    = "DejaVu"
	textWidth   = 500
	pageBottom  = 780
	marginTop   = 40
	marginLeft  = 48
	dateLayout  = "02.01.2006 15:04"
	footerLabel = "Generated by MediSim. For training purposes only."
)

var ErrNoFont = errors.New("no usable font for the PDF report")

// Service renders learner feedback as PDF.
type Service struct {
	fontPaths []string
	logger    logrus.FieldLogger
}

func NewService(fontPaths []string, logger logrus.FieldLogger) *Service {
	return &Service{fontPaths: fontPaths, logger: logger}
}

type writer struct {
	pdf *gopdf.GoPdf
}

func (w *writer) font(size float64) error {
	return w.pdf.SetFont(fontName, "", size)
}

func (w *writer) breakIfNeeded(h float64) {
	if w.pdf.GetY()+h > pageBottom {
		w.pdf.AddPage()
		w.pdf.SetXY(marginLeft, marginTop)
	}
}

func (w *writer) line(text string, h float64) {
	w.breakIfNeeded(h)
	w.pdf.SetX(marginLeft)
	w.pdf.Cell(nil, text)
	w.pdf.Br(h)
}

func (w *writer) paragraph(text string, h float64) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	for _, raw := range strings.Split(text, "\n") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		lines, err := w.pdf.SplitText(raw, textWidth)
		if err != nil {
			lines = []string{raw}
		}
		for _, l := range lines {
			w.line(l, h)
		}
	}
}

func (w *writer) section(title string, items []string, empty string) error {
	w.pdf.Br(8)
	if err := w.font(14); err != nil {
		return err
	}
	w.line(title, 18)
	if err := w.font(11); err != nil {
		return err
	}
	if len(items) == 0 {
		w.line(empty, 14)
		return nil
	}
	for _, item := range items {
		w.paragraph("- "+item, 14)
	}
	return nil
}

func (s *Service) loadFont(pdf *gopdf.GoPdf) error {
	var fontErr error
	for _, path := range s.fontPaths {
		if err := pdf.AddTTFFont(fontName, path); err == nil {
			return nil
		} else {
			fontErr = err
		}
	}
	s.logger.WithError(fontErr).WithField("paths", s.fontPaths).Error("Loading report font failed")
	return fmt.Errorf("%w: last error: %v", ErrNoFont, fontErr)
}

// summary is the report header. The expected diagnosis stays out of it.
func summary(a *consultation.Attempt) []string {
	fb := a.Feedback
	lines := []string{
		fmt.Sprintf("Date: %s", a.CompletedAt.Format(dateLayout)),
		fmt.Sprintf("Case: %s (%s)", a.CaseTitle, a.Specialty),
		fmt.Sprintf("Your diagnosis: %s", a.Submission.MainDiagnosis),
		fmt.Sprintf("Score: %d/100   Experience gained: %d", fb.Score, fb.ExperienceGain),
	}
	if fb.Fallback {
		lines = append(lines, "The automated evaluation was not available; a neutral score was given.")
	}
	return lines
}

// Render lays out one finished attempt: the case, the learner's answer,
// the score and the tutor's comments.
func (s *Service) Render(_ context.Context, a *consultation.Attempt) ([]byte, error) {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()
	if err := s.loadFont(pdf); err != nil {
		return nil, err
	}
	pdf.SetXY(marginLeft, marginTop)
	w := &writer{pdf: pdf}
	fb := a.Feedback

	if err := w.font(20); err != nil {
		return nil, err
	}
	w.line("Consultation feedback", 30)

	if err := w.font(12); err != nil {
		return nil, err
	}
	for _, l := range summary(a) {
		w.line(l, 16)
	}

	w.pdf.Br(6)
	if err := w.font(11); err != nil {
		return nil, err
	}
	w.paragraph("Reasoning: "+a.Submission.Reasoning, 14)

	if err := w.section("Strengths", fb.Strengths, "None noted."); err != nil {
		return nil, err
	}
	if err := w.section("To improve", fb.Weaknesses, "Nothing specific."); err != nil {
		return nil, err
	}
	if err := w.section("Questions you missed", fb.MissedQuestions, "None."); err != nil {
		return nil, err
	}

	w.pdf.Br(8)
	if err := w.font(14); err != nil {
		return nil, err
	}
	w.line("Tutor's comment", 18)
	if err := w.font(11); err != nil {
		return nil, err
	}
	w.paragraph(fb.FinalComment, 14)

	w.pdf.Br(12)
	if err := w.font(9); err != nil {
		return nil, err
	}
	w.line(footerLabel, 12)

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"learner_id": a.LearnerID,
		"case_id":    a.CaseID,
		"bytes":      buf.Len(),
	}).Debug("Feedback report rendered")
	return buf.Bytes(), nil
}
