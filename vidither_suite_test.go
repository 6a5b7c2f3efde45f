package vidither_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestVidither(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Vidither Suite")
}
