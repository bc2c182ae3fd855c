package catalog

// NormalizeMain enforces the single-main invariant on client input: the
// first image flagged main wins, any later flags are cleared, and when
// nothing is flagged the first image becomes main.
func NormalizeMain(imgs []ImageInput) []ImageInput {
	out := make([]ImageInput, len(imgs))
	copy(out, imgs)

	seen := false
	for i := range out {
		if out[i].IsMain {
			if seen {
				out[i].IsMain = false
			}
			seen = true
		}
	}
	if !seen && len(out) > 0 {
		out[0].IsMain = true
	}
	return out
}

// MainURL returns the URL of the main image, or "" when there is none.
func MainURL(imgs []ImageInput) string {
	for _, img := range imgs {
		if img.IsMain {
			return img.URL
		}
	}
	return ""
}

// ImagePlan is the write set that reconciles a stored image set against
// the desired one. Images holds the normalized desired set; an image's
// final position is its index there, regardless of what was deleted.
type ImagePlan struct {
	Delete []string
	Insert []ImageInput
	Images []ImageInput
}

// PlanImages computes the reconcile plan for a listing's images.
func PlanImages(existing []Image, want []ImageInput) ImagePlan {
	images := NormalizeMain(want)
	toDelete, toInsert := DiffImages(existing, images)
	return ImagePlan{Delete: toDelete, Insert: toInsert, Images: images}
}

// Position returns the final position of an image URL in the plan.
func (p ImagePlan) Position(url string) int {
	for i, img := range p.Images {
		if img.URL == url {
			return i
		}
	}
	return len(p.Images)
}

// DiffImages reconciles the stored image set against the desired one by
// URL: images whose URL disappeared are deleted, new URLs are inserted,
// shared URLs are kept in place.
func DiffImages(existing []Image, want []ImageInput) (toDelete []string, toInsert []ImageInput) {
	wanted := make(map[string]bool, len(want))
	for _, img := range want {
		wanted[img.URL] = true
	}
	kept := make(map[string]bool, len(existing))
	for _, img := range existing {
		if wanted[img.URL] {
			kept[img.URL] = true
		} else {
			toDelete = append(toDelete, img.ID)
		}
	}
	for _, img := range want {
		if !kept[img.URL] {
			toInsert = append(toInsert, img)
		}
	}
	return toDelete, toInsert
}
