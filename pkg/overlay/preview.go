package overlay

import (
	"hash/fnv"
	"image"
	"math/rand"
	"path/filepath"

	"github.com/menta2k/region-augment/internal/utils"
	"github.com/menta2k/region-augment/pkg/types"
)

// Saver stores an encoded image at path
type Saver interface {
	Save(img image.Image, path string) (int64, error)
}

// DirPreviewer writes an overlay PNG for every image it is shown. It is safe
// for concurrent use.
type DirPreviewer struct {
	dir   string
	alpha float64
	seed  int64
	saver Saver
}

// NewDirPreviewer creates a previewer writing into dir. Colours are drawn
// from seed and the image name, so a preview does not depend on the order
// images are shown in.
func NewDirPreviewer(dir string, alpha float64, seed int64, saver Saver) *DirPreviewer {
	return &DirPreviewer{
		dir:   dir,
		alpha: alpha,
		seed:  seed,
		saver: saver,
	}
}

// Path returns where the preview of name is written. The source extension is
// kept so a.jpg and a.png get separate previews.
func (p *DirPreviewer) Path(name string) string {
	return filepath.Join(p.dir, filepath.FromSlash(name+".png"))
}

// Preview renders regions over img and writes the result as PNG
func (p *DirPreviewer) Preview(name string, img image.Image, regions []types.Region) error {
	out := FillRegions(img, regions, p.alpha, p.rng(name))

	path := p.Path(name)
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	_, err := p.saver.Save(out, path)
	return err
}

func (p *DirPreviewer) rng(name string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(name))
	return rand.New(rand.NewSource(p.seed ^ int64(h.Sum64())))
}
