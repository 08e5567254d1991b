package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/annel0/sandbox-world/internal/game"
	"github.com/annel0/sandbox-world/internal/world"
	"github.com/annel0/sandbox-world/internal/world/wall"
)

// BlockTypeView - описание типа блока для клиентов API
type BlockTypeView struct {
	ID             int8   `json:"id"`
	Name           string `json:"name"`
	Width          int32  `json:"width"`
	Height         int32  `json:"height"`
	BreakTime      int32  `json:"break_time"`
	EffectiveTool  string `json:"effective_tool,omitempty"`
	RequiredPower  int32  `json:"required_tool_power,omitempty"`
	Transparent    bool   `json:"transparent"`
	Clickable      bool   `json:"clickable"`
	InventorySlots int    `json:"inventory_slots"`
}

// SlotView - слот инвентаря
type SlotView struct {
	Item  string `json:"item"`
	Count int32  `json:"count"`
}

// BlockView - состояние клетки слоя блоков
type BlockView struct {
	X             int32       `json:"x"`
	Y             int32       `json:"y"`
	ID            int8        `json:"id"`
	Name          string      `json:"name"`
	FromMainX     int32       `json:"from_main_x"`
	FromMainY     int32       `json:"from_main_y"`
	BreakProgress int32       `json:"break_progress"`
	BreakStage    int32       `json:"break_stage"`
	Data          []byte      `json:"data,omitempty"`
	Inventory     []*SlotView `json:"inventory,omitempty"`
}

// WallView - состояние клетки слоя стен
type WallView struct {
	X             int32  `json:"x"`
	Y             int32  `json:"y"`
	ID            int8   `json:"id"`
	Name          string `json:"name"`
	BreakProgress int32  `json:"break_progress"`
	BreakStage    int32  `json:"break_stage"`
}

// SetCellRequest - запрос на замену клетки. Type - имя типа блока или стены.
type SetCellRequest struct {
	X    int32  `json:"x"`
	Y    int32  `json:"y"`
	Type string `json:"type" binding:"required"`
}

// do выполняет fn в игровом цикле и переводит ошибку в HTTP-ответ.
// Возвращает false, если ответ уже отправлен.
func (rs *RestServer) do(c *gin.Context, fn func(w *game.World) error) bool {
	ctx, cancel := context.WithTimeout(c.Request.Context(), rs.timeout)
	defer cancel()

	err := rs.world.Do(ctx, fn)
	if err == nil {
		return true
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, world.ErrOutOfBounds):
		status = http.StatusNotFound
	case errors.Is(err, world.ErrUnknownBlockType), errors.Is(err, world.ErrUnknownWallType),
		errors.Is(err, world.ErrNotFound):
		status = http.StatusBadRequest
	case errors.Is(err, game.ErrStopped):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status == http.StatusInternalServerError {
		rs.logger.Error("запрос %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, GenericResponse{Success: false, Message: err.Error()})
	return false
}

func parseCoords(c *gin.Context) (int32, int32, bool) {
	x, errX := strconv.ParseInt(c.Param("x"), 10, 32)
	y, errY := strconv.ParseInt(c.Param("y"), 10, 32)
	if errX != nil || errY != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Координаты должны быть целыми числами"})
		return 0, 0, false
	}
	return int32(x), int32(y), true
}

func (rs *RestServer) handleBlockTypes(c *gin.Context) {
	var types []BlockTypeView
	ok := rs.do(c, func(w *game.World) error {
		reg := w.Blocks.Registry()
		for _, id := range reg.IDs() {
			t, err := reg.Get(id)
			if err != nil {
				return err
			}
			view := BlockTypeView{
				ID:             int8(t.ID),
				Name:           t.Name,
				Width:          t.Width,
				Height:         t.Height,
				BreakTime:      t.BreakTime,
				RequiredPower:  t.RequiredToolPower,
				Transparent:    t.Transparent,
				Clickable:      t.Clickable,
				InventorySlots: len(t.InventorySlots),
			}
			if tool, err := reg.Tool(t.EffectiveTool); err == nil && t.EffectiveTool != 0 {
				view.EffectiveTool = tool.Name
			}
			types = append(types, view)
		}
		return nil
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Типы блоков", Data: types})
}

func (rs *RestServer) handleWallTypes(c *gin.Context) {
	var types []wall.Type
	if !rs.do(c, func(w *game.World) error {
		types = w.Walls.Registry().Types()
		return nil
	}) {
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Типы стен", Data: types})
}

func (rs *RestServer) handleGetBlock(c *gin.Context) {
	x, y, ok := parseCoords(c)
	if !ok {
		return
	}
	var view *BlockView
	if !rs.do(c, func(w *game.World) error {
		var err error
		view, err = blockView(w, x, y)
		return err
	}) {
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Блок", Data: view})
}

func (rs *RestServer) handleGetWall(c *gin.Context) {
	x, y, ok := parseCoords(c)
	if !ok {
		return
	}
	var view *WallView
	if !rs.do(c, func(w *game.World) error {
		var err error
		view, err = wallView(w, x, y)
		return err
	}) {
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Стена", Data: view})
}

func (rs *RestServer) handleSetBlock(c *gin.Context) {
	var req SetCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат запроса"})
		return
	}

	var view *BlockView
	if !rs.do(c, func(w *game.World) error {
		id, err := w.Blocks.Registry().IDByName(req.Type)
		if err != nil {
			return err
		}
		if err := w.Blocks.SetBlock(w.Events, req.X, req.Y, id); err != nil {
			return err
		}
		view, err = blockView(w, req.X, req.Y)
		return err
	}) {
		return
	}
	rs.logger.Info("🔧 %s поставил %s в (%d,%d)", c.GetString(ctxSubject), req.Type, req.X, req.Y)
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Блок установлен", Data: view})
}

func (rs *RestServer) handleSetWall(c *gin.Context) {
	var req SetCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат запроса"})
		return
	}

	var view *WallView
	if !rs.do(c, func(w *game.World) error {
		id, err := w.Walls.Registry().IDByName(req.Type)
		if err != nil {
			return err
		}
		if err := w.Walls.SetWall(w.Events, req.X, req.Y, id); err != nil {
			return err
		}
		view, err = wallView(w, req.X, req.Y)
		return err
	}) {
		return
	}
	rs.logger.Info("🔧 %s поставил стену %s в (%d,%d)", c.GetString(ctxSubject), req.Type, req.X, req.Y)
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Стена установлена", Data: view})
}

func (rs *RestServer) handleSave(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), rs.timeout*6)
	defer cancel()

	if err := rs.world.RequestSave(ctx); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, game.ErrStopped) {
			status = http.StatusServiceUnavailable
		}
		rs.logger.Error("сохранение по запросу %s: %v", c.GetString(ctxSubject), err)
		c.JSON(status, GenericResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Мир сохранён"})
}

func blockView(w *game.World, x, y int32) (*BlockView, error) {
	t, err := w.Blocks.TypeAt(x, y)
	if err != nil {
		return nil, err
	}
	fm, err := w.Blocks.FromMain(x, y)
	if err != nil {
		return nil, err
	}
	progress, err := w.Blocks.BreakProgress(x, y)
	if err != nil {
		return nil, err
	}
	stage, err := w.Blocks.BreakStage(x, y)
	if err != nil {
		return nil, err
	}
	data, err := w.Blocks.Data(x, y)
	if err != nil {
		return nil, err
	}
	inv, err := w.Blocks.Inventory(x, y)
	if err != nil {
		return nil, err
	}

	view := &BlockView{
		X: x, Y: y,
		ID:            int8(t.ID),
		Name:          t.Name,
		FromMainX:     fm.X,
		FromMainY:     fm.Y,
		BreakProgress: progress,
		BreakStage:    stage,
		Data:          data,
	}
	for _, st := range inv {
		if st == nil {
			view.Inventory = append(view.Inventory, nil)
			continue
		}
		name := strconv.Itoa(int(st.Item))
		if it, err := w.Items.Get(st.Item); err == nil {
			name = it.Name
		}
		view.Inventory = append(view.Inventory, &SlotView{Item: name, Count: st.Count})
	}
	return view, nil
}

func wallView(w *game.World, x, y int32) (*WallView, error) {
	t, err := w.Walls.TypeAt(x, y)
	if err != nil {
		return nil, err
	}
	progress, err := w.Walls.BreakProgress(x, y)
	if err != nil {
		return nil, err
	}
	stage, err := w.Walls.BreakStage(x, y)
	if err != nil {
		return nil, err
	}
	return &WallView{X: x, Y: y, ID: int8(t.ID), Name: t.Name, BreakProgress: progress, BreakStage: stage}, nil
}
