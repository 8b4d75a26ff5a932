package servicetests_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestServiceTests(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Service handler scenario Suite")
}
