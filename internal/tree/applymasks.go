package tree

import "github.com/eix-go/eix/internal/mask"

// ApplyMasks processes every mask in masks matching p's category/name, in
// insertion order, mutating each matching version's MaskFlags: a MASK sets
// Masked, an UNMASK clears Masked and sets Unmasked, and a SYSTEM mask
// additionally sets System (spec §4.B).
func ApplyMasks(p *Package, masks *mask.List) {
	for _, m := range masks.Get(p.Category, p.Name) {
		for _, v := range p.Versions {
			if !m.Matches(v.Version, v.Slot) {
				continue
			}
			switch m.Type {
			case mask.TypeMask:
				v.MaskFlags |= mask.Masked
				v.MaskFlags &^= mask.Unmasked
			case mask.TypeUnmask:
				v.MaskFlags &^= mask.Masked
				v.MaskFlags |= mask.Unmasked
			case mask.TypeSystem:
				v.MaskFlags |= mask.Masked | mask.System
				v.MaskFlags &^= mask.Unmasked
			}
		}
	}
}
