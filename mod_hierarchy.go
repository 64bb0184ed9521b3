package gekkofx

// maxHierarchyDepth bounds the propagation passes per frame; deeper chains
// settle over the following frames.
const maxHierarchyDepth = 8

type HierarchyModule struct{}

func (HierarchyModule) Install(app *App, cmd *Commands) {
	app.UseSystem(
		System(TransformHierarchySystem).
			InStage(PreUpdate),
	)
}

// TransformHierarchySystem derives world transforms of Parent-linked entities.
// Roots are authoritative in world space, so their local transform mirrors it.
func TransformHierarchySystem(cmd *Commands) {
	MakeQuery2[LocalTransformComponent, TransformComponent](cmd).Without(Parent{}).Map(func(eid EntityId, local *LocalTransformComponent, tr *TransformComponent) bool {
		*local = LocalTransformComponent(*tr)
		return true
	})

	for pass := 0; pass < maxHierarchyDepth; pass++ {
		changed := false
		MakeQuery3[LocalTransformComponent, Parent, TransformComponent](cmd).Map(func(eid EntityId, local *LocalTransformComponent, parent *Parent, world *TransformComponent) bool {
			parentWorld, ok := GetComponent[TransformComponent](cmd, parent.Entity)
			if !ok {
				return true
			}
			next := parentWorld.Compose(*local)
			if next != *world {
				*world = next
				changed = true
			}
			return true
		})
		if !changed {
			break
		}
	}
}
