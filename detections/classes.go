package detections

import "fmt"

// Classes lists the 80 COCO object classes in model output order.
var Classes = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat", "dog", "horse",
	"sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack", "umbrella", "handbag", "tie",
	"suitcase", "frisbee", "skis", "snowboard", "sports ball", "kite", "baseball bat", "baseball glove",
	"skateboard", "surfboard", "tennis racket", "bottle", "wine glass", "cup", "fork", "knife", "spoon",
	"bowl", "banana", "apple", "sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut",
	"cake", "chair", "couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator", "book",
	"clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

// Class ids the game pipeline cares about.
const (
	// ClassPerson is the COCO id for a person.
	ClassPerson = 0
	// ClassChair is the COCO id for a chair.
	ClassChair = 56
)

// ClassName returns the human-readable name for a class id.
func ClassName(id int) string {
	if id < 0 || id >= len(Classes) {
		return fmt.Sprintf("object %d", id)
	}
	return Classes[id]
}
