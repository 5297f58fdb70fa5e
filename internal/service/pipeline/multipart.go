package pipeline

// Boundary separates frames in the multipart video response.
const Boundary = "frame"

// ContentType is the response content type for a stream of Chunk output.
const ContentType = "multipart/x-mixed-replace; boundary=" + Boundary

const partHeader = "--" + Boundary + "\r\n" + "Content-Type: image/jpeg\r\n" + "\r\n"

// Chunk wraps one encoded JPEG as a multipart part:
//
//	--frame\r\n
//	Content-Type: image/jpeg\r\n
//	\r\n
//	<jpeg>\r\n
func Chunk(jpeg []byte) []byte {
	chunk := make([]byte, 0, len(partHeader)+len(jpeg)+2)
	chunk = append(chunk, partHeader...)
	chunk = append(chunk, jpeg...)
	chunk = append(chunk, '\r', '\n')
	return chunk
}
