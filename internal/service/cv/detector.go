package cv

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"visionserver/internal/config"
	"visionserver/internal/dto"
	"visionserver/internal/logger"
	"visionserver/internal/service/pipeline"

	"gocv.io/x/gocv"
)

var ErrNetNotLoaded = errors.New("detection network not initialized")

type modelFamily int

const (
	familyYOLO modelFamily = iota // ONNX export, output [1, 4+classes, anchors]
	familySSD                     // TF SSD graph, output rows of [batch, class, score, x1, y1, x2, y2]
)

// DetectorService runs a DNN over frames and returns detections in model order.
type DetectorService struct {
	net            gocv.Net
	loaded         bool
	family         modelFamily
	labels         Labels
	inputSize      int
	scoreThreshold float32
	nmsThreshold   float32
	modelPath      string
	configPath     string
	mu             sync.Mutex
	logger         *logger.Logger
}

// NewDetectorService creates a detector from the configured model files. A
// network that cannot be loaded is logged; Detect then fails with ErrNetNotLoaded.
func NewDetectorService(config *config.Config, logger *logger.Logger) *DetectorService {
	service := &DetectorService{
		family:         familyOf(config.ModelPath, config.ConfigPath),
		inputSize:      config.InputSize,
		scoreThreshold: float32(config.ModelThreshold),
		nmsThreshold:   float32(config.NMSThreshold),
		modelPath:      config.ModelPath,
		configPath:     config.ConfigPath,
		logger:         logger,
	}
	if service.inputSize <= 0 {
		service.inputSize = 640
	}

	labels, err := LoadLabels(config.ClassNamesPath, service.family == familySSD)
	if err != nil {
		service.logger.Warning("Falling back to COCO labels: %v", err)
		labels, _ = LoadLabels("", service.family == familySSD)
	}
	service.labels = labels

	if err := service.initializeNet(); err != nil {
		service.logger.Warning("Could not initialize detection network: %v", err)
		return service
	}

	return service
}

func familyOf(modelPath, configPath string) modelFamily {
	if configPath == "" && strings.EqualFold(filepath.Ext(modelPath), ".onnx") {
		return familyYOLO
	}
	return familySSD
}

// initializeNet loads the DNN network and sets backend/target preferences.
func (s *DetectorService) initializeNet() error {
	if _, err := os.Stat(s.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", s.modelPath)
	}

	if s.configPath != "" {
		if _, err := os.Stat(s.configPath); os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", s.configPath)
		}
	}

	net := gocv.ReadNet(s.modelPath, s.configPath)
	if net.Empty() {
		return fmt.Errorf("failed to load network")
	}
	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)

	if errBackend != nil || errTarget != nil {
		net.Close()
		return fmt.Errorf("failed to set preferable backend or target")
	}

	s.net = net
	s.loaded = true
	s.logger.Info("Detection network initialized successfully (%s)", s.modelPath)
	return nil
}

// Detect runs the network on the frame.
func (s *DetectorService) Detect(frame pipeline.Frame) ([]dto.Detection, error) {
	mat, err := matOf(frame)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return nil, ErrNetNotLoaded
	}

	if s.family == familyYOLO {
		return s.detectYOLO(*mat)
	}
	return s.detectSSD(*mat)
}

func (s *DetectorService) detectYOLO(mat gocv.Mat) ([]dto.Detection, error) {
	size := image.Pt(s.inputSize, s.inputSize)
	blob := gocv.BlobFromImage(mat, 1.0/255.0, size, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")
	output := s.net.Forward("")
	defer output.Close()

	dims := output.Size()
	if len(dims) != 3 || dims[1] <= 4 {
		return nil, fmt.Errorf("unexpected YOLO output shape %v", dims)
	}
	attributes, anchors := dims[1], dims[2]

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read network output: %w", err)
	}
	if len(data) < attributes*anchors {
		return nil, fmt.Errorf("network output too short: %d values", len(data))
	}

	xFactor := float32(mat.Cols()) / float32(s.inputSize)
	yFactor := float32(mat.Rows()) / float32(s.inputSize)
	bounds := image.Rect(0, 0, mat.Cols(), mat.Rows())

	var boxes []image.Rectangle
	var scores []float32
	var classes []int

	// Output is laid out attribute-major: value (attr, anchor) lives at attr*anchors + anchor.
	for a := 0; a < anchors; a++ {
		bestClass, bestScore := -1, float32(0)
		for c := 4; c < attributes; c++ {
			if score := data[c*anchors+a]; score > bestScore {
				bestClass, bestScore = c-4, score
			}
		}
		if bestScore < s.scoreThreshold {
			continue
		}

		cx, cy := data[a], data[anchors+a]
		w, h := data[2*anchors+a], data[3*anchors+a]
		box := image.Rect(
			int((cx-w/2)*xFactor), int((cy-h/2)*yFactor),
			int((cx+w/2)*xFactor), int((cy+h/2)*yFactor),
		).Intersect(bounds)
		if box.Empty() {
			continue
		}

		boxes = append(boxes, box)
		scores = append(scores, bestScore)
		classes = append(classes, bestClass)
	}

	if len(boxes) == 0 {
		return nil, nil
	}

	indices := gocv.NMSBoxes(boxes, scores, s.scoreThreshold, s.nmsThreshold)
	results := make([]dto.Detection, 0, len(indices))
	for _, i := range indices {
		results = append(results, dto.Detection{
			Label:      s.labels.Name(classes[i]),
			Confidence: float64(scores[i]),
			Box:        boxes[i],
		})
	}
	return results, nil
}

func (s *DetectorService) detectSSD(mat gocv.Mat) ([]dto.Detection, error) {
	//Create blob with parameters that fit ssd coco net input
	blob := gocv.BlobFromImage(mat, 1.0/127.5, image.Pt(300, 300), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")
	output := s.net.Forward("")
	defer output.Close()

	bounds := image.Rect(0, 0, mat.Cols(), mat.Rows())
	var results []dto.Detection

	// Process detections with output: [ batch_id, class_id, confidence, x1, y1, x2, y2 ]
	outputReshaped := output.Reshape(1, output.Total()/7)
	defer outputReshaped.Close()
	for i := 0; i < outputReshaped.Rows(); i++ {
		confidence := outputReshaped.GetFloatAt(i, 2)
		if confidence < s.scoreThreshold {
			continue
		}
		classID := int(outputReshaped.GetFloatAt(i, 1))
		box := image.Rect(
			int(outputReshaped.GetFloatAt(i, 3)*float32(mat.Cols())),
			int(outputReshaped.GetFloatAt(i, 4)*float32(mat.Rows())),
			int(outputReshaped.GetFloatAt(i, 5)*float32(mat.Cols())),
			int(outputReshaped.GetFloatAt(i, 6)*float32(mat.Rows())),
		).Intersect(bounds)
		if box.Empty() {
			continue
		}

		results = append(results, dto.Detection{
			Label:      s.labels.Name(classID),
			Confidence: float64(confidence),
			Box:        box,
		})
	}

	return results, nil
}

// Close releases the network.
func (s *DetectorService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return nil
	}
	s.loaded = false
	return s.net.Close()
}
