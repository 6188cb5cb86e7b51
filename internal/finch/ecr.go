package finch

import (
	"os"
	"regexp"
)

// ecrHost matches an ECR registry host such as
// 123456789012.dkr.ecr.us-west-2.amazonaws.com.
var ecrHost = regexp.MustCompile(`\d{12}\.dkr\.ecr\.[a-z0-9-]+\.amazonaws\.com(\.cn)?`)

// IsECRRepository reports whether an image reference points at ECR.
func IsECRRepository(image string) bool {
	return ecrHost.MatchString(image)
}

// ContainsECRReference reports whether the Dockerfile at path pulls from ECR.
// Unreadable files are treated as having no reference.
func ContainsECRReference(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return ecrHost.Match(data)
}
