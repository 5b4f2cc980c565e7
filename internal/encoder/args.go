package encoder

// BuildMP3Args constructs ffmpeg arguments for an audio-only mp3 transcode.
// -n refuses to overwrite an existing output.
func BuildMP3Args(inputPath, outputPath string, includeProgress bool) []string {
	args := []string{
		"-n",
		"-i", inputPath,
		"-vn",
		"-c:a", "libmp3lame",
		"-q:a", "0",
	}
	if includeProgress {
		args = append(args, "-progress", "pipe:1", "-nostats")
	}
	return append(args, outputPath)
}
