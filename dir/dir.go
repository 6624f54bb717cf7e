package dir

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// FilenameTimestampRegex regular expression for timestamps in filenames
var FilenameTimestampRegex *regexp.Regexp

func init() {
	FilenameTimestampRegex = regexp.MustCompile("[0-9]{4}_[0-9]{2}_[0-9]{2}_[0-9]{2}_[0-9]{2}_[0-9]{2}_[0-9]+")
}

// RegexEndsWith returns the string regex
func RegexEndsWith(val string) string {
	return fmt.Sprintf("^.*(%s)$", val)
}

// RegexBeginsWith returns the string regex
func RegexBeginsWith(val string) string {
	return fmt.Sprintf("^(%s).*$", val)
}

// Size returns the directory size in Bytes
func Size(path string, regex string) (uint64, error) {
	var size uint64
	isDesire := regexp.MustCompile(regex)
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			if matched := isDesire.MatchString(info.Name()); matched || len(regex) == 0 {
				size += uint64(info.Size())
			}
		}
		return err
	})
	return size, err
}

// List returns the files
func List(path string, regex string) ([]os.FileInfo, error) {
	result := make([]os.FileInfo, 0)
	isDesire := regexp.MustCompile(regex)
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			if matched := isDesire.MatchString(info.Name()); matched || len(regex) == 0 {
				result = append(result, info)
			}
		}
		return err
	})
	return result, err
}

// ListPaths returns the full paths of matching files
func ListPaths(path string, regex string) ([]string, error) {
	result := make([]string, 0)
	isDesire := regexp.MustCompile(regex)
	err := filepath.Walk(path, func(curPath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			if matched := isDesire.MatchString(info.Name()); matched || len(regex) == 0 {
				result = append(result, curPath)
			}
		}
		return err
	})
	return result, err
}

// BytesToMegaBytes converts Bytes to MegaBytes
func BytesToMegaBytes(in uint64) float64 {
	return float64(in) / 1000 / 1000
}

// DescendingTimeName sorting string by timestamp in name
type DescendingTimeName []string

func (a DescendingTimeName) Len() int { return len(a) }
func (a DescendingTimeName) Less(i, j int) bool {
	first := FilenameTimestampRegex.FindString(a[i])
	second := FilenameTimestampRegex.FindString(a[j])
	lessThan := first > second
	return lessThan
}
func (a DescendingTimeName) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
