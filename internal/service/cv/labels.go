package cv

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// cocoLabels are the 80 COCO classes in YOLO index order.
var cocoLabels = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat", "traffic light",
	"fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat", "dog", "horse", "sheep", "cow",
	"elephant", "bear", "zebra", "giraffe", "backpack", "umbrella", "handbag", "tie", "suitcase", "frisbee",
	"skis", "snowboard", "sports ball", "kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket", "bottle",
	"wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple", "sandwich", "orange",
	"broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair", "couch", "potted plant", "bed",
	"dining table", "toilet", "tv", "laptop", "mouse", "remote", "keyboard", "cell phone", "microwave", "oven",
	"toaster", "sink", "refrigerator", "book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

// ssdUnusedIDs are category ids skipped by the 91-id COCO numbering used by TF SSD graphs.
var ssdUnusedIDs = map[int]bool{12: true, 26: true, 29: true, 30: true, 45: true, 66: true, 68: true, 69: true, 71: true, 83: true}

// Labels maps model class ids to names.
type Labels struct {
	names     []string
	ssdLayout bool
}

// LoadLabels reads one label per line from path, or falls back to COCO when path is empty.
func LoadLabels(path string, ssdLayout bool) (Labels, error) {
	if path == "" {
		return Labels{names: cocoLabels, ssdLayout: ssdLayout}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return Labels{}, fmt.Errorf("failed to open class names: %w", err)
	}
	defer file.Close()

	var names []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			names = append(names, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return Labels{}, fmt.Errorf("failed to read class names: %w", err)
	}
	if len(names) == 0 {
		return Labels{}, fmt.Errorf("class names file %s is empty", path)
	}

	// A custom list is indexed directly, whatever the model family.
	return Labels{names: names}, nil
}

// Name returns the label for a class id.
func (l Labels) Name(classID int) string {
	index := classID
	if l.ssdLayout {
		index = ssdIndex(classID)
	}
	if index >= 0 && index < len(l.names) {
		return l.names[index]
	}
	return fmt.Sprintf("unknown_%d", classID)
}

// ssdIndex converts a 1-based COCO category id with gaps to a dense 0-based index.
func ssdIndex(classID int) int {
	if classID < 1 || classID > 90 || ssdUnusedIDs[classID] {
		return -1
	}
	index := classID - 1
	for id := range ssdUnusedIDs {
		if id < classID {
			index--
		}
	}
	return index
}
